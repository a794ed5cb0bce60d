package storagefilesystem

import (
	"encoding/base64"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/storage/storage_common"
)

type fileSystemStorage struct {
	directory string
}

func getFileName(kind string, key string) string {
	return kind + "$" + base64.URLEncoding.EncodeToString([]byte(key))
}

func (es *fileSystemStorage) getFilePath(kind string, key string) string {
	return filepath.Join(es.directory, getFileName(kind, key))
}

func (es *fileSystemStorage) Write(kind string, key string, data map[string]interface{}) error {
	saveFile := es.getFilePath(kind, key)
	dataBytes, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return errors.Wrapf(err, "marshal %s %s", kind, key)
	}

	if consts.DEBUG_SAVE_LOAD {
		gwlog.Debugf("Saving to file %s: %s", saveFile, string(dataBytes))
	}
	// readers must never see a partial document
	tmpFile := saveFile + ".tmp"
	if err := ioutil.WriteFile(tmpFile, dataBytes, 0644); err != nil {
		return err
	}
	return os.Rename(tmpFile, saveFile)
}

func (es *fileSystemStorage) Read(kind string, key string) (map[string]interface{}, error) {
	dataBytes, err := ioutil.ReadFile(es.getFilePath(kind, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var data map[string]interface{}
	if err = json.Unmarshal(dataBytes, &data); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s %s", kind, key)
	}
	return data, nil
}

func (es *fileSystemStorage) Exists(kind string, key string) (bool, error) {
	_, err := os.Stat(es.getFilePath(kind, key))
	if err == nil {
		return true, nil
	} else if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (es *fileSystemStorage) Delete(kind string, key string) error {
	err := os.Remove(es.getFilePath(kind, key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (es *fileSystemStorage) List(kind string) ([]string, error) {
	prefix := kind + "$"
	files, err := filepath.Glob(filepath.Join(es.directory, prefix+"*"))
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(files))
	for _, fpath := range files {
		_, fn := filepath.Split(fpath)
		if !strings.HasPrefix(fn, prefix) || strings.HasSuffix(fn, ".tmp") {
			continue
		}
		keyBytes, err := base64.URLEncoding.DecodeString(fn[len(prefix):])
		if err != nil {
			gwlog.Errorf("fail to parse file %s", fpath)
			continue
		}
		keys = append(keys, string(keyBytes))
	}
	return keys, nil
}

func (es *fileSystemStorage) Close() {
}

func (es *fileSystemStorage) IsEOF(err error) bool {
	return false
}

// OpenDirectory opens a directory as storage backend
func OpenDirectory(directory string) (storagecommon.Backend, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, errors.Wrap(err, "create storage directory failed")
	}

	return &fileSystemStorage{
		directory: directory,
	}, nil
}
