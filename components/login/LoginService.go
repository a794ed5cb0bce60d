package main

import (
	"fmt"
	"net"
	"time"

	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/config"
	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/gwutils"
	"github.com/xiaonanln/chanworld/engine/netutil"
	"github.com/xiaonanln/chanworld/engine/opmon"
	"github.com/xiaonanln/chanworld/engine/post"
	"github.com/xiaonanln/chanworld/engine/proto"
	"github.com/xiaonanln/chanworld/engine/storage"
	"github.com/xiaonanln/chanworld/engine/worldclient"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	timer "github.com/xiaonanln/goTimer"
)

const (
	rsNotRunning = iota
	rsRunning
	rsTerminating
	rsTerminated
)

type worldPacketQueueItem struct {
	msgtype proto.MsgType
	packet  *netutil.Packet
}

type clientPacketQueueItem struct {
	cp      *ClientProxy
	msgtype proto.MsgType
	packet  *netutil.Packet
}

// LoginService creates characters and sends selected characters to a channel
type LoginService struct {
	config     *config.LoginConfig
	world      *worldclient.WorldConnMgr
	storage    *storage.Storage
	posts      *post.Queue
	characters *characterDirectory

	worldPacketQueue  chan worldPacketQueueItem
	clientPacketQueue chan clientPacketQueueItem

	runState   xnsyncutil.AtomicInt
	terminated *xnsyncutil.OneTimeCond
}

func newLoginService(cfg *config.LoginConfig) *LoginService {
	service := &LoginService{
		config:            cfg,
		posts:             post.NewQueue(),
		worldPacketQueue:  make(chan worldPacketQueueItem, consts.LOGIN_SERVICE_PACKET_QUEUE_SIZE),
		clientPacketQueue: make(chan clientPacketQueueItem, consts.LOGIN_SERVICE_PACKET_QUEUE_SIZE),
		terminated:        xnsyncutil.NewOneTimeCond(),
	}
	service.storage = storage.New(config.GetStorage(), service.posts)
	service.world = worldclient.NewWorldConnMgr("login", config.GetWorld(), service)
	service.characters = newCharacterDirectory(service.world, service.storage)
	return service
}

func (service *LoginService) String() string {
	return fmt.Sprintf("LoginService<%s:%d>", service.config.Ip, service.config.Port)
}

func (service *LoginService) run() {
	service.runState.Store(rsRunning)
	service.storage.Start()
	service.world.Connect()

	// clients are accepted only after every character name is known
	service.storage.LoadAll(storage.KindCharacter, func(docs map[string]map[string]interface{}, err error) {
		if err != nil {
			gwlog.Fatalf("%s: load characters failed: %s", service, err)
		}
		characters := make([]*storage.Character, 0, len(docs))
		for key, doc := range docs {
			id, err := common.ParsePlayerID(key)
			if err != nil {
				gwlog.Errorf("%s: bad character key %q", service, key)
				continue
			}
			c, err := storage.CharacterFromDocument(id, doc)
			if err != nil {
				gwlog.Errorf("%s: %s", service, err)
				continue
			}
			characters = append(characters, c)
		}
		service.characters.load(characters)
		gwlog.Infof("%s: %d characters loaded, next id %d", service, len(characters), service.characters.nextID)

		listenAddr := fmt.Sprintf("%s:%d", service.config.Ip, service.config.Port)
		go netutil.ServeTCPForever(listenAddr, service)
	})

	timer.AddTimer(consts.WORLD_STATUS_LOG_INTERVAL, func() {
		gwlog.Infof("%s: %s", service, service.characters)
	})
	gwutils.RepeatUntilPanicless(service.serveRoutine)
}

func (service *LoginService) serveRoutine() {
	ticker := time.Tick(consts.LOGIN_SERVICE_TICK_INTERVAL)
	for {
		select {
		case item := <-service.worldPacketQueue:
			op := opmon.StartOperation("login.handleWorldPacket")
			service.handleWorldPacket(item.msgtype, item.packet)
			item.packet.Release()
			op.Finish(time.Millisecond * 100)
		case item := <-service.clientPacketQueue:
			op := opmon.StartOperation("login.handleClientPacket")
			service.handleClientPacket(item.cp, item.msgtype, item.packet)
			item.packet.Release()
			op.Finish(time.Millisecond * 100)
		case <-ticker:
			timer.Tick()
		case <-service.posts.C():
		}
		service.posts.Tick()
	}
}

func (service *LoginService) terminate() {
	if service.runState.Load() != rsRunning {
		return
	}
	service.runState.Store(rsTerminating)
	service.storage.Shutdown()
	service.runState.Store(rsTerminated)
	service.terminated.Signal()
}

// OnWorldClientConnect registers the login process to the world
func (service *LoginService) OnWorldClientConnect(wc *worldclient.WorldClient) {
	if err := wc.SendLoginRegister(); err != nil {
		gwlog.Errorf("%s: register to world failed: %s", service, err)
	}
}

// HandleWorldClientPacket sends world packets to the main routine
func (service *LoginService) HandleWorldClientPacket(msgtype proto.MsgType, packet *netutil.Packet) {
	service.worldPacketQueue <- worldPacketQueueItem{msgtype: msgtype, packet: packet}
}

// HandleWorldClientDisconnect fails the selections the world will never answer
func (service *LoginService) HandleWorldClientDisconnect() {
	gwlog.Errorf("%s: disconnected from world, reconnecting ...", service)
	service.posts.Post(service.characters.worldLost)
}

// ServeTCPConnection handles TCP connections from clients
func (service *LoginService) ServeTCPConnection(conn net.Conn) {
	if service.runState.Load() != rsRunning {
		conn.Close()
		return
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetWriteBuffer(consts.CLIENT_PROXY_WRITE_BUFFER_SIZE)
		tcpConn.SetReadBuffer(consts.CLIENT_PROXY_READ_BUFFER_SIZE)
		tcpConn.SetNoDelay(consts.CLIENT_PROXY_SET_TCP_NO_DELAY)
	}
	newClientProxy(service, conn).serve()
}

func (service *LoginService) onClientProxyClose(cp *ClientProxy) {
	service.characters.clientClosed(cp)
}

func (service *LoginService) handleWorldPacket(msgtype proto.MsgType, pkt *netutil.Packet) {
	switch msgtype {
	case proto.MT_LOGIN_CHANNEL_GO:
		id := common.PlayerID(pkt.ReadInt32())
		ip := pkt.ReadVarStr()
		port := int(pkt.ReadUint32())
		service.characters.channelGo(id, ip, port)
	default:
		gwlog.TraceError("%s: unknown msgtype %d from world", service, msgtype)
	}
}

func (service *LoginService) handleClientPacket(cp *ClientProxy, msgtype proto.MsgType, pkt *netutil.Packet) {
	var err error
	switch msgtype {
	case proto.MT_CLIENT_CREATE_CHARACTER:
		_, err = service.characters.create(cp, pkt.ReadVarStr())
	case proto.MT_CLIENT_DELETE_CHARACTER:
		err = service.characters.remove(common.PlayerID(pkt.ReadInt32()))
	case proto.MT_CLIENT_SELECT_CHARACTER:
		id := common.PlayerID(pkt.ReadInt32())
		err = service.characters.selectCharacter(cp, id, common.ChannelID(pkt.ReadUint16()))
	default:
		gwlog.TraceError("%s: unknown msgtype %d", cp, msgtype)
	}

	if err != nil {
		gwlog.Infof("%s: msgtype %d failed: %s", cp, msgtype, err)
	}
}
