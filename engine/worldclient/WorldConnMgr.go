package worldclient

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/config"
	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/gwvar"
	"github.com/xiaonanln/chanworld/engine/gwutils"
	"github.com/xiaonanln/chanworld/engine/netutil"
	"github.com/xiaonanln/chanworld/engine/proto"
)

const (
	_LOOP_DELAY_ON_WORLD_CLIENT_ERROR = time.Second
)

var (
	errWorldNotConnected = errors.New("world not connected")
)

// IWorldClientDelegate defines functions that should be implemented by the owners of world clients
type IWorldClientDelegate interface {
	// OnWorldClientConnect is called on the connecting goroutine before any packet is received
	OnWorldClientConnect(wc *WorldClient)
	HandleWorldClientPacket(msgtype proto.MsgType, packet *netutil.Packet)
	HandleWorldClientDisconnect()
}

// WorldConnMgr keeps a connection to the world, reconnecting after failures
type WorldConnMgr struct {
	name     string
	cfg      *config.WorldConfig
	delegate IWorldClientDelegate

	lock        sync.RWMutex
	worldClient *WorldClient
	isReconnect bool
}

// NewWorldConnMgr creates the connection manager of a process named name
func NewWorldConnMgr(name string, cfg *config.WorldConfig, delegate IWorldClientDelegate) *WorldConnMgr {
	return &WorldConnMgr{
		name:     name,
		cfg:      cfg,
		delegate: delegate,
	}
}

func (wcm *WorldConnMgr) String() string {
	return fmt.Sprintf("WorldConnMgr<%s>", wcm.name)
}

// Connect blocks until the world is connected and then starts the recv routine
func (wcm *WorldConnMgr) Connect() {
	wcm.assureConnectedWorldClient()
	go gwutils.RepeatUntilPanicless(wcm.serveWorldClient)
}

// GetWorldClientForSend returns the current world client, or nil if the world is not connected
func (wcm *WorldConnMgr) GetWorldClientForSend() *WorldClient {
	wcm.lock.RLock()
	wc := wcm.worldClient
	wcm.lock.RUnlock()
	if wc == nil || wc.IsClosed() {
		return nil
	}
	return wc
}

func (wcm *WorldConnMgr) currentClient() *WorldClient {
	wcm.lock.RLock()
	defer wcm.lock.RUnlock()
	return wcm.worldClient
}

func (wcm *WorldConnMgr) assureConnectedWorldClient() *WorldClient {
	for {
		wc := wcm.currentClient()
		if wc != nil && !wc.IsClosed() {
			return wc
		}

		wc, err := wcm.connectWorldClient()
		if err != nil {
			gwlog.Errorf("%s: connect to world failed: %s", wcm, err)
			time.Sleep(_LOOP_DELAY_ON_WORLD_CLIENT_ERROR)
			continue
		}
		gwlog.Infof("%s: connected to world: %s", wcm, wc)
		gwvar.IsWorldConnected.Set(true)
		wcm.delegate.OnWorldClientConnect(wc)
	}
}

func (wcm *WorldConnMgr) connectWorldClient() (*WorldClient, error) {
	conn, err := netutil.ConnectTCP(wcm.cfg.Ip, wcm.cfg.Port)
	if err != nil {
		return nil, err
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetReadBuffer(consts.WORLD_LINK_READ_BUFFER_SIZE)
		tcpConn.SetWriteBuffer(consts.WORLD_LINK_WRITE_BUFFER_SIZE)
	}

	wcm.lock.Lock()
	wc := newWorldClient(conn, wcm.cfg.CompressConnection, wcm.isReconnect)
	wcm.worldClient = wc
	wcm.isReconnect = true
	wcm.lock.Unlock()
	return wc, nil
}

// serve the world client, receive messages from the world and hand them to the delegate
func (wcm *WorldConnMgr) serveWorldClient() {
	gwlog.Debugf("%s.serveWorldClient: start serving world client ...", wcm)
	for {
		wc := wcm.assureConnectedWorldClient()
		var msgtype proto.MsgType
		pkt, err := wc.Recv(&msgtype)
		if err != nil {
			if netutil.IsTemporaryError(err) {
				continue
			}

			gwlog.Errorf("%s: recv from world failed: %s", wcm, err)
			wc.Close()
			gwvar.IsWorldConnected.Set(false)
			wcm.delegate.HandleWorldClientDisconnect()
			time.Sleep(_LOOP_DELAY_ON_WORLD_CLIENT_ERROR)
			continue
		}

		wcm.delegate.HandleWorldClientPacket(msgtype, pkt)
	}
}

// with runs f on the current world client, sends are dropped while the world is not connected
func (wcm *WorldConnMgr) with(f func(wc *WorldClient) error) error {
	wc := wcm.GetWorldClientForSend()
	if wc == nil {
		return errWorldNotConnected
	}
	return f(wc)
}
