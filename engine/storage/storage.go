package storage

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/config"
	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/opmon"
	"github.com/xiaonanln/chanworld/engine/post"
	"github.com/xiaonanln/chanworld/engine/storage/backend/filesystem"
	"github.com/xiaonanln/chanworld/engine/storage/backend/mongodb"
	"github.com/xiaonanln/chanworld/engine/storage/backend/redis"
	"github.com/xiaonanln/chanworld/engine/storage/backend/redis_cluster"
	"github.com/xiaonanln/chanworld/engine/storage/storage_common"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
)

type saveRequest struct {
	Kind     string
	Key      string
	Data     map[string]interface{}
	Callback SaveCallbackFunc
}

type loadRequest struct {
	Kind     string
	Key      string
	Callback LoadCallbackFunc
}

type existsRequest struct {
	Kind     string
	Key      string
	Callback ExistsCallbackFunc
}

type deleteRequest struct {
	Kind     string
	Key      string
	Callback SaveCallbackFunc
}

type listRequest struct {
	Kind     string
	Callback ListCallbackFunc
}

type loadAllRequest struct {
	Kind     string
	Callback LoadAllCallbackFunc
}

// SaveCallbackFunc is the callback type of storage Save and Delete
type SaveCallbackFunc func()

// LoadCallbackFunc is the callback type of storage Load, data is nil if the document does not exist
type LoadCallbackFunc func(data map[string]interface{}, err error)

// ExistsCallbackFunc is the callback type of storage Exists
type ExistsCallbackFunc func(exists bool, err error)

// ListCallbackFunc is the callback type of storage List
type ListCallbackFunc func(keys []string, err error)

// LoadAllCallbackFunc is the callback type of storage LoadAll
type LoadAllCallbackFunc func(docs map[string]map[string]interface{}, err error)

// OpenFunc opens a storage backend
type OpenFunc func() (storagecommon.Backend, error)

// Storage runs storage operations on its own goroutine and posts callbacks to the owner's post queue
type Storage struct {
	open       OpenFunc
	backend    storagecommon.Backend
	posts      *post.Queue
	queue      *xnsyncutil.SyncQueue
	terminated *xnsyncutil.OneTimeCond

	recentWarnedQueueLen int
}

// New creates a Storage over the backend described by cfg
func New(cfg *config.StorageConfig, posts *post.Queue) *Storage {
	return NewWithOpener(func() (storagecommon.Backend, error) {
		return OpenBackend(cfg)
	}, posts)
}

// NewWithOpener creates a Storage whose backend is opened (and reopened after EOF) by open
func NewWithOpener(open OpenFunc, posts *post.Queue) *Storage {
	return &Storage{
		open:       open,
		posts:      posts,
		queue:      xnsyncutil.NewSyncQueue(),
		terminated: xnsyncutil.NewOneTimeCond(),
	}
}

// OpenBackend opens the backend described by cfg
func OpenBackend(cfg *config.StorageConfig) (storagecommon.Backend, error) {
	switch cfg.Type {
	case "filesystem":
		return storagefilesystem.OpenDirectory(cfg.Directory)
	case "mongodb":
		return storagemongodb.OpenMongoDB(cfg.Url, cfg.DB)
	case "redis":
		dbindex, err := strconv.Atoi(cfg.DB)
		if err != nil {
			return nil, errors.Wrap(err, "redis db must be integer")
		}
		return storageredis.OpenRedis(cfg.Url, dbindex)
	case "redis_cluster":
		return storagerediscluster.OpenRedisCluster(cfg.StartNodes.ToList())
	default:
		return nil, errors.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// Start opens the backend and starts the storage routine
func (s *Storage) Start() {
	if err := s.assureBackendReady(); err != nil {
		gwlog.Fatalf("Storage backend is not ready: %s", err)
	}
	go s.storageRoutine()
}

// Shutdown waits for queued operations to finish and closes the backend
func (s *Storage) Shutdown() {
	s.queue.Close()
	s.terminated.Wait()
}

// Save saves a document
func (s *Storage) Save(kind string, key string, data map[string]interface{}, callback SaveCallbackFunc) {
	s.push(saveRequest{Kind: kind, Key: key, Data: data, Callback: callback})
}

// Load loads a document
func (s *Storage) Load(kind string, key string, callback LoadCallbackFunc) {
	s.push(loadRequest{Kind: kind, Key: key, Callback: callback})
}

// Exists checks if a document exists
func (s *Storage) Exists(kind string, key string, callback ExistsCallbackFunc) {
	s.push(existsRequest{Kind: kind, Key: key, Callback: callback})
}

// Delete deletes a document
func (s *Storage) Delete(kind string, key string, callback SaveCallbackFunc) {
	s.push(deleteRequest{Kind: kind, Key: key, Callback: callback})
}

// List lists the keys of all documents of a kind
func (s *Storage) List(kind string, callback ListCallbackFunc) {
	s.push(listRequest{Kind: kind, Callback: callback})
}

// LoadAll loads every document of a kind
func (s *Storage) LoadAll(kind string, callback LoadAllCallbackFunc) {
	s.push(loadAllRequest{Kind: kind, Callback: callback})
}

func (s *Storage) push(req interface{}) {
	s.queue.Push(req)
	qlen := s.queue.Len()
	if qlen > 100 && qlen%100 == 0 && s.recentWarnedQueueLen != qlen {
		gwlog.Warnf("Storage operation queue length = %d", qlen)
		s.recentWarnedQueueLen = qlen
	}
}

func (s *Storage) assureBackendReady() (err error) {
	if s.backend != nil {
		return
	}
	s.backend, err = s.open()
	return
}

func (s *Storage) post(f func()) {
	s.posts.Post(f)
}

func (s *Storage) checkEOF(err error) {
	if err != nil && s.backend.IsEOF(err) {
		s.backend.Close()
		s.backend = nil
	}
}

func (s *Storage) storageRoutine() {
	defer func() {
		err := recover()
		if err != nil {
			gwlog.TraceError("storage routine paniced: %s, restarting ...", err)
			go s.storageRoutine()
		} else {
			if s.backend != nil {
				s.backend.Close()
			}
			s.terminated.Signal()
		}
	}()

	for {
		op := s.queue.Pop()
		if op == nil { // storage closed
			break
		}

		for {
			err := s.assureBackendReady()
			if err == nil {
				break
			}
			gwlog.Errorf("Storage backend is not ready: %s", err)
			time.Sleep(time.Second)
		}

		s.handleOperation(op)
	}
}

func (s *Storage) handleOperation(op interface{}) {
	switch req := op.(type) {
	case saveRequest:
		if consts.DEBUG_SAVE_LOAD {
			gwlog.Debugf("storage: SAVING %s %s ...", req.Kind, req.Key)
		}
		monop := opmon.StartOperation("storage.save")
		for {
			if err := s.assureBackendReady(); err != nil {
				gwlog.Errorf("Storage backend is not ready: %s", err)
				time.Sleep(time.Second)
				continue
			}
			err := s.backend.Write(req.Kind, req.Key, req.Data)
			if err == nil {
				break
			}
			// saves are retried until they succeed
			gwlog.Errorf("storage: save %s %s failed: %s", req.Kind, req.Key, err)
			s.checkEOF(err)
			time.Sleep(time.Second)
		}
		monop.Finish(consts.STORAGE_OPERATION_WARN_THRESHOLD)
		if req.Callback != nil {
			s.post(req.Callback)
		}
	case loadRequest:
		if consts.DEBUG_SAVE_LOAD {
			gwlog.Debugf("storage: LOADING %s %s ...", req.Kind, req.Key)
		}
		monop := opmon.StartOperation("storage.load")
		data, err := s.backend.Read(req.Kind, req.Key)
		if err != nil {
			gwlog.TraceError("storage: load %s %s failed: %s", req.Kind, req.Key, err)
			data = nil
		}
		monop.Finish(consts.STORAGE_OPERATION_WARN_THRESHOLD)
		if req.Callback != nil {
			s.post(func() {
				req.Callback(data, err)
			})
		}
		s.checkEOF(err)
	case existsRequest:
		monop := opmon.StartOperation("storage.exists")
		exists, err := s.backend.Exists(req.Kind, req.Key)
		monop.Finish(consts.STORAGE_OPERATION_WARN_THRESHOLD)
		if req.Callback != nil {
			s.post(func() {
				req.Callback(exists, err)
			})
		}
		s.checkEOF(err)
	case deleteRequest:
		monop := opmon.StartOperation("storage.delete")
		err := s.backend.Delete(req.Kind, req.Key)
		if err != nil {
			gwlog.Errorf("storage: delete %s %s failed: %s", req.Kind, req.Key, err)
		}
		monop.Finish(consts.STORAGE_OPERATION_WARN_THRESHOLD)
		if req.Callback != nil {
			s.post(req.Callback)
		}
		s.checkEOF(err)
	case listRequest:
		monop := opmon.StartOperation("storage.list")
		keys, err := s.backend.List(req.Kind)
		if err != nil {
			gwlog.TraceError("storage: list %s failed: %s", req.Kind, err)
		}
		monop.Finish(time.Second)
		if req.Callback != nil {
			s.post(func() {
				req.Callback(keys, err)
			})
		}
		s.checkEOF(err)
	case loadAllRequest:
		monop := opmon.StartOperation("storage.loadall")
		docs, err := s.loadAll(req.Kind)
		if err != nil {
			gwlog.TraceError("storage: load all %s failed: %s", req.Kind, err)
		}
		monop.Finish(time.Second)
		if req.Callback != nil {
			s.post(func() {
				req.Callback(docs, err)
			})
		}
		s.checkEOF(err)
	default:
		gwlog.Panicf("storage: unknown operation: %v", op)
	}
}

func (s *Storage) loadAll(kind string) (map[string]map[string]interface{}, error) {
	keys, err := s.backend.List(kind)
	if err != nil {
		return nil, err
	}
	docs := make(map[string]map[string]interface{}, len(keys))
	for _, key := range keys {
		data, err := s.backend.Read(kind, key)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s %s", kind, key)
		}
		if data != nil {
			docs[key] = data
		}
	}
	return docs, nil
}
