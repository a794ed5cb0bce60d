package config

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-ini/ini"
	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/gwlog"
)

const (
	_DEFAULT_CONFIG_FILE          = "chanworld.ini"
	_DEFAULT_LOCALHOST_IP         = "127.0.0.1"
	_DEFAULT_SAVE_INTERVAL        = time.Minute * 5
	_DEFAULT_HTTP_IP              = "127.0.0.1"
	_DEFAULT_LOG_LEVEL            = "debug"
	_DEFAULT_STORAGE_DB           = "chanworld"
	_DEFAULT_MAX_POPULATION       = 1000
	_DEFAULT_LOAD_REPORT_INTERVAL = time.Second * 5
)

var (
	configFilePath  = _DEFAULT_CONFIG_FILE
	chanWorldConfig *ChanWorldConfig
	configLock      sync.Mutex
)

// WorldConfig defines fields of world config
type WorldConfig struct {
	Ip                 string
	Port               int
	LogFile            string
	LogStderr          bool
	HTTPIp             string
	HTTPPort           int
	LogLevel           string
	CompressConnection bool
}

// ChannelConfig defines fields of channel config
type ChannelConfig struct {
	Ip                 string // client listen ip
	Port               int    // client listen port
	KCPPort            int    // 0 disables the KCP listener
	ExternalIp         string // ip sent to clients in redirects
	LogFile            string
	LogStderr          bool
	HTTPIp             string
	HTTPPort           int
	LogLevel           string
	GoMaxProcs         int
	MaxPopulation      int
	SaveInterval       time.Duration
	HandoverAckTimeout time.Duration
	LoadReportInterval time.Duration
}

// LoginConfig defines fields of login config
type LoginConfig struct {
	Ip        string
	Port      int
	LogFile   string
	LogStderr bool
	HTTPIp    string
	HTTPPort  int
	LogLevel  string
}

// StorageConfig defines fields of storage config
type StorageConfig struct {
	Type       string // Type of storage (filesystem, mongodb, redis, redis_cluster)
	Directory  string // Directory of filesystem storage (filesystem)
	Url        string // Connection URL (mongodb, redis)
	DB         string // Database name (mongodb, redis)
	StartNodes common.StringSet
}

// ChanWorldConfig defines the total config file structure
type ChanWorldConfig struct {
	World         WorldConfig
	ChannelCommon ChannelConfig
	Channels      map[int]*ChannelConfig
	Login         LoginConfig
	Storage       StorageConfig
}

// SetConfigFile sets the config file path (chanworld.ini by default)
func SetConfigFile(f string) {
	configFilePath = f
}

// GetConfigDir returns the directory of the config file
func GetConfigDir() string {
	dir, _ := path.Split(configFilePath)
	return dir
}

// GetConfigFilePath returns the config file path
func GetConfigFilePath() string {
	return configFilePath
}

// Get returns the total config
func Get() *ChanWorldConfig {
	configLock.Lock()
	defer configLock.Unlock()
	if chanWorldConfig == nil {
		chanWorldConfig = readChanWorldConfig()
	}
	return chanWorldConfig
}

// Reload forces to reload the whole config
func Reload() *ChanWorldConfig {
	configLock.Lock()
	chanWorldConfig = nil
	configLock.Unlock()

	return Get()
}

// GetWorld returns the world config
func GetWorld() *WorldConfig {
	return &Get().World
}

// GetLogin returns the login config
func GetLogin() *LoginConfig {
	return &Get().Login
}

// GetChannel gets the channel config of specified channel ID
func GetChannel(channelID common.ChannelID) *ChannelConfig {
	return Get().Channels[int(channelID)]
}

// GetChannelIDs returns all channel IDs
func GetChannelIDs() []common.ChannelID {
	cfg := Get()
	ids := make([]int, 0, len(cfg.Channels))
	for id := range cfg.Channels {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	res := make([]common.ChannelID, len(ids))
	for i, id := range ids {
		res[i] = common.ChannelID(id)
	}
	return res
}

// GetStorage returns the storage config
func GetStorage() *StorageConfig {
	return &Get().Storage
}

// DumpPretty format config to string in pretty format
func DumpPretty(cfg interface{}) string {
	s, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err.Error()
	}
	return string(s)
}

func readChanWorldConfig() *ChanWorldConfig {
	config := ChanWorldConfig{
		Channels: map[int]*ChannelConfig{},
	}
	gwlog.Infof("Using config file: %s", configFilePath)
	iniFile, err := ini.Load(configFilePath)
	checkConfigError(err, "")

	readWorldConfig(iniFile.Section("world"), &config.World)
	readChannelCommonConfig(iniFile.Section("channel_common"), &config.ChannelCommon)
	readLoginConfig(iniFile.Section("login"), &config.Login)
	readStorageConfig(iniFile.Section("storage"), &config.Storage)

	for _, sec := range iniFile.Sections() {
		secName := strings.ToLower(sec.Name())
		if secName == "default" || secName == "world" || secName == "channel_common" || secName == "login" || secName == "storage" {
			// handled above
		} else if len(secName) > 7 && secName[:7] == "channel" {
			id, err := strconv.Atoi(secName[7:])
			checkConfigError(err, fmt.Sprintf("invalid channel name: %s", secName))
			config.Channels[id] = readChannelConfig(sec, &config.ChannelCommon)
		} else {
			gwlog.Errorf("unknown section: %s", secName)
		}
	}

	validateConfig(&config)
	return &config
}

func readWorldConfig(sec *ini.Section, wc *WorldConfig) {
	wc.Ip = _DEFAULT_LOCALHOST_IP
	wc.LogFile = "world.log"
	wc.LogStderr = true
	wc.LogLevel = _DEFAULT_LOG_LEVEL
	wc.HTTPIp = _DEFAULT_HTTP_IP

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "ip" {
			wc.Ip = key.MustString(wc.Ip)
		} else if name == "port" {
			wc.Port = key.MustInt(wc.Port)
		} else if name == "log_file" {
			wc.LogFile = key.MustString(wc.LogFile)
		} else if name == "log_stderr" {
			wc.LogStderr = key.MustBool(wc.LogStderr)
		} else if name == "http_ip" {
			wc.HTTPIp = key.MustString(wc.HTTPIp)
		} else if name == "http_port" {
			wc.HTTPPort = key.MustInt(wc.HTTPPort)
		} else if name == "log_level" {
			wc.LogLevel = key.MustString(wc.LogLevel)
		} else if name == "compress_connection" {
			wc.CompressConnection = key.MustBool(wc.CompressConnection)
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func readChannelCommonConfig(sec *ini.Section, cc *ChannelConfig) {
	cc.Ip = "0.0.0.0"
	cc.ExternalIp = _DEFAULT_LOCALHOST_IP
	cc.LogFile = "channel.log"
	cc.LogStderr = true
	cc.LogLevel = _DEFAULT_LOG_LEVEL
	cc.HTTPIp = _DEFAULT_HTTP_IP
	cc.HTTPPort = 0 // http not enabled by default
	cc.MaxPopulation = _DEFAULT_MAX_POPULATION
	cc.SaveInterval = _DEFAULT_SAVE_INTERVAL
	cc.HandoverAckTimeout = consts.DEFAULT_HANDOVER_ACK_TIMEOUT
	cc.LoadReportInterval = _DEFAULT_LOAD_REPORT_INTERVAL

	_readChannelConfig(sec, cc)
}

func readChannelConfig(sec *ini.Section, channelCommonConfig *ChannelConfig) *ChannelConfig {
	cc := *channelCommonConfig // copy from channel_common
	_readChannelConfig(sec, &cc)
	if cc.Port == 0 {
		gwlog.Panicf("%s: port is not set", sec.Name())
	}
	return &cc
}

func _readChannelConfig(sec *ini.Section, cc *ChannelConfig) {
	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "ip" {
			cc.Ip = key.MustString(cc.Ip)
		} else if name == "port" {
			cc.Port = key.MustInt(cc.Port)
		} else if name == "kcp_port" {
			cc.KCPPort = key.MustInt(cc.KCPPort)
		} else if name == "external_ip" {
			cc.ExternalIp = key.MustString(cc.ExternalIp)
		} else if name == "log_file" {
			cc.LogFile = key.MustString(cc.LogFile)
		} else if name == "log_stderr" {
			cc.LogStderr = key.MustBool(cc.LogStderr)
		} else if name == "http_ip" {
			cc.HTTPIp = key.MustString(cc.HTTPIp)
		} else if name == "http_port" {
			cc.HTTPPort = key.MustInt(cc.HTTPPort)
		} else if name == "log_level" {
			cc.LogLevel = key.MustString(cc.LogLevel)
		} else if name == "gomaxprocs" {
			cc.GoMaxProcs = key.MustInt(cc.GoMaxProcs)
		} else if name == "max_population" {
			cc.MaxPopulation = key.MustInt(cc.MaxPopulation)
		} else if name == "save_interval" {
			cc.SaveInterval = time.Second * time.Duration(key.MustInt(int(_DEFAULT_SAVE_INTERVAL/time.Second)))
		} else if name == "handover_ack_timeout_ms" {
			cc.HandoverAckTimeout = time.Millisecond * time.Duration(key.MustInt(int(consts.DEFAULT_HANDOVER_ACK_TIMEOUT/time.Millisecond)))
		} else if name == "load_report_interval_ms" {
			cc.LoadReportInterval = time.Millisecond * time.Duration(key.MustInt(int(_DEFAULT_LOAD_REPORT_INTERVAL/time.Millisecond)))
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func readLoginConfig(sec *ini.Section, lc *LoginConfig) {
	lc.Ip = "0.0.0.0"
	lc.LogFile = "login.log"
	lc.LogStderr = true
	lc.LogLevel = _DEFAULT_LOG_LEVEL
	lc.HTTPIp = _DEFAULT_HTTP_IP

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "ip" {
			lc.Ip = key.MustString(lc.Ip)
		} else if name == "port" {
			lc.Port = key.MustInt(lc.Port)
		} else if name == "log_file" {
			lc.LogFile = key.MustString(lc.LogFile)
		} else if name == "log_stderr" {
			lc.LogStderr = key.MustBool(lc.LogStderr)
		} else if name == "http_ip" {
			lc.HTTPIp = key.MustString(lc.HTTPIp)
		} else if name == "http_port" {
			lc.HTTPPort = key.MustInt(lc.HTTPPort)
		} else if name == "log_level" {
			lc.LogLevel = key.MustString(lc.LogLevel)
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func readStorageConfig(sec *ini.Section, config *StorageConfig) {
	// setup default values
	config.Type = "filesystem"
	config.Directory = "_chanworld_storage"
	config.DB = _DEFAULT_STORAGE_DB
	config.StartNodes = common.StringSet{}

	for _, key := range sec.Keys() {
		name := strings.ToLower(key.Name())
		if name == "type" {
			config.Type = key.MustString(config.Type)
		} else if name == "directory" {
			config.Directory = key.MustString(config.Directory)
		} else if name == "url" {
			config.Url = key.MustString(config.Url)
		} else if name == "db" {
			config.DB = key.MustString(config.DB)
		} else if strings.HasPrefix(name, "start_nodes_") {
			config.StartNodes.Add(key.MustString(""))
		} else {
			gwlog.Panicf("section %s has unknown key: %s", sec.Name(), key.Name())
		}
	}
}

func checkConfigError(err error, msg string) {
	if err != nil {
		if msg == "" {
			msg = err.Error()
		}
		gwlog.Panicf("read config error: %s", msg)
	}
}

func validateStorageConfig(config *StorageConfig) {
	if config.Type == "filesystem" {
		if config.Directory == "" {
			gwlog.Panicf("directory is not set in %s storage config", config.Type)
		}
	} else if config.Type == "mongodb" {
		if config.Url == "" {
			gwlog.Panicf("url is not set in %s storage config", config.Type)
		}
		if config.DB == "" {
			gwlog.Panicf("db is not set in %s storage config", config.Type)
		}
	} else if config.Type == "redis" {
		if config.Url == "" {
			gwlog.Panicf("redis host is not set")
		}
		if _, err := strconv.Atoi(config.DB); err != nil {
			gwlog.Panic(errors.Wrap(err, "redis db must be integer"))
		}
	} else if config.Type == "redis_cluster" {
		if len(config.StartNodes) == 0 {
			gwlog.Panicf("must have at least 1 start_nodes for [storage].redis_cluster")
		}
		for s := range config.StartNodes {
			if s == "" {
				gwlog.Panicf("start_nodes must not be empty")
			}
		}
	} else {
		gwlog.Panicf("unknown storage type: %s", config.Type)
	}
}

func validateConfig(config *ChanWorldConfig) {
	if config.World.Port == 0 {
		gwlog.Panicf("world port is not set")
	}

	channelsNum := len(config.Channels)
	if channelsNum <= 0 {
		gwlog.Panicf("channel not found in config file, must has at least 1 channel")
	}
	for channelid := 1; channelid <= channelsNum; channelid++ {
		if _, ok := config.Channels[channelid]; !ok {
			gwlog.Panicf("found %d channels in config file, but channel%d is not found. channelid must be 1~%d", channelsNum, channelid, channelsNum)
		}
	}

	validateStorageConfig(&config.Storage)
}
