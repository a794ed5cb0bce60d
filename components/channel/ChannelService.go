package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/xiaonanln/chanworld/components/channel/lbc"
	"github.com/xiaonanln/chanworld/engine/channelsync"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/config"
	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/gwutils"
	"github.com/xiaonanln/chanworld/engine/gwvar"
	"github.com/xiaonanln/chanworld/engine/netutil"
	"github.com/xiaonanln/chanworld/engine/opmon"
	"github.com/xiaonanln/chanworld/engine/post"
	"github.com/xiaonanln/chanworld/engine/proto"
	"github.com/xiaonanln/chanworld/engine/storage"
	"github.com/xiaonanln/chanworld/engine/worldclient"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	timer "github.com/xiaonanln/goTimer"
	"github.com/xtaci/kcp-go"
	"golang.org/x/net/websocket"
)

const (
	rsNotRunning = iota
	rsRunning
	rsTerminating
	rsTerminated
)

type worldPacketQueueItem struct { // packet queue from the world client
	msgtype proto.MsgType
	packet  *netutil.Packet
}

type clientPacketQueueItem struct { // packet queue from client proxies
	cp      *ClientProxy
	msgtype proto.MsgType
	packet  *netutil.Packet
}

// ChannelService serves the clients of one channel and keeps its replica in sync with the world
type ChannelService struct {
	id      common.ChannelID
	config  *config.ChannelConfig
	sync    *channelsync.ChannelSync
	world   *worldclient.WorldConnMgr
	storage *storage.Storage
	posts   *post.Queue

	worldPacketQueue  chan worldPacketQueueItem
	clientPacketQueue chan clientPacketQueueItem

	runState   xnsyncutil.AtomicInt
	terminated *xnsyncutil.OneTimeCond
	cancelLBC  context.CancelFunc
}

func newChannelService(id common.ChannelID, cfg *config.ChannelConfig) *ChannelService {
	service := &ChannelService{
		id:                id,
		config:            cfg,
		posts:             post.NewQueue(),
		worldPacketQueue:  make(chan worldPacketQueueItem, consts.CHANNEL_SERVICE_PACKET_QUEUE_SIZE),
		clientPacketQueue: make(chan clientPacketQueueItem, consts.CHANNEL_SERVICE_PACKET_QUEUE_SIZE),
		terminated:        xnsyncutil.NewOneTimeCond(),
	}
	service.storage = storage.New(config.GetStorage(), service.posts)
	service.world = worldclient.NewWorldConnMgr(fmt.Sprintf("channel%d", id), config.GetWorld(), service)
	service.sync = channelsync.New(channelsync.Config{
		ID:                 id,
		HandoverWindow:     consts.MAX_HANDOVER_WINDOW,
		HandoverAckTimeout: cfg.HandoverAckTimeout,
	}, service.world, common.SystemClock{}, service.storage)
	return service
}

func (service *ChannelService) String() string {
	return fmt.Sprintf("ChannelService<%d>", service.id)
}

func (service *ChannelService) run() {
	service.runState.Store(rsRunning)
	service.storage.Start()
	service.world.Connect()

	listenAddr := fmt.Sprintf("%s:%d", service.config.Ip, service.config.Port)
	go netutil.ServeTCPForever(listenAddr, service)
	if service.config.KCPPort != 0 {
		go service.serveKCP(fmt.Sprintf("%s:%d", service.config.Ip, service.config.KCPPort))
	}

	ctx, cancel := context.WithCancel(context.Background())
	service.cancelLBC = cancel
	channellbc.Initialize(ctx, service.config.LoadReportInterval, func(cpuPercent float64) {
		service.posts.Post(func() {
			gwvar.Population.Set(int64(service.sync.Population()))
			gwvar.PendingHandovers.Set(int64(service.sync.PendingCount()))
			service.world.SendChannelLoad(proto.ChannelLoadInfo{
				CPUPercent: cpuPercent,
				Population: service.sync.Population(),
			})
		})
	})

	timer.AddTimer(consts.PENDING_HANDOVER_SWEEP_INTERVAL, service.sync.SweepPending)
	timer.AddTimer(consts.EFFECT_EXPIRE_CHECK_INTERVAL, service.sync.ExpireEffects)
	if service.config.SaveInterval > 0 {
		timer.AddTimer(service.config.SaveInterval, service.sync.SaveAll)
	}
	gwutils.RepeatUntilPanicless(service.serveRoutine)
}

func (service *ChannelService) serveRoutine() {
	ticker := time.Tick(consts.CHANNEL_SERVICE_TICK_INTERVAL)
	// here begins the main loop of the channel
	for {
		select {
		case item := <-service.worldPacketQueue:
			op := opmon.StartOperation("channel.handleWorldPacket")
			service.handleWorldPacket(item.msgtype, item.packet)
			item.packet.Release()
			op.Finish(time.Millisecond * 100)
		case item := <-service.clientPacketQueue:
			op := opmon.StartOperation("channel.handleClientPacket")
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

func (service *ChannelService) terminate() {
	if service.runState.Load() != rsRunning {
		return
	}
	service.runState.Store(rsTerminating)
	service.cancelLBC()
	service.sync.SaveAll()
	service.storage.Shutdown()
	service.runState.Store(rsTerminated)
	service.terminated.Signal()
}

// OnWorldClientConnect registers the channel, the world answers with a snapshot
func (service *ChannelService) OnWorldClientConnect(wc *worldclient.WorldClient) {
	if err := wc.SendChannelRegister(service.id, service.config.ExternalIp, service.config.Port); err != nil {
		gwlog.Errorf("%s: register to world failed: %s", service, err)
	}
}

// HandleWorldClientPacket sends world packets to the main routine
func (service *ChannelService) HandleWorldClientPacket(msgtype proto.MsgType, packet *netutil.Packet) {
	service.worldPacketQueue <- worldPacketQueueItem{msgtype: msgtype, packet: packet}
}

// HandleWorldClientDisconnect is called when the world link is lost, the next snapshot resyncs the replica
func (service *ChannelService) HandleWorldClientDisconnect() {
	gwlog.Errorf("%s: disconnected from world, reconnecting ...", service)
}

// ServeTCPConnection handles TCP connections from clients
func (service *ChannelService) ServeTCPConnection(conn net.Conn) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetWriteBuffer(consts.CLIENT_PROXY_WRITE_BUFFER_SIZE)
		tcpConn.SetReadBuffer(consts.CLIENT_PROXY_READ_BUFFER_SIZE)
		tcpConn.SetNoDelay(consts.CLIENT_PROXY_SET_TCP_NO_DELAY)
	}
	service.handleClientConnection(conn)
}

func (service *ChannelService) serveKCP(addr string) {
	kcpListener, err := kcp.ListenWithOptions(addr, nil, 10, 3)
	if err != nil {
		gwlog.Panic(err)
	}

	gwlog.Infof("Listening on KCP: %s ...", addr)

	gwutils.RepeatUntilPanicless(func() {
		for {
			conn, err := kcpListener.AcceptKCP()
			if err != nil {
				gwlog.Panic(err)
			}
			go service.handleKCPConn(conn)
		}
	})
}

func (service *ChannelService) handleKCPConn(conn *kcp.UDPSession) {
	gwlog.Infof("KCP connection from %s", conn.RemoteAddr())

	conn.SetReadBuffer(consts.CLIENT_PROXY_READ_BUFFER_SIZE)
	conn.SetWriteBuffer(consts.CLIENT_PROXY_WRITE_BUFFER_SIZE)
	conn.SetStreamMode(true)
	conn.SetWriteDelay(true)
	conn.SetNoDelay(1, 10, 2, 1)
	service.handleClientConnection(conn)
}

func (service *ChannelService) handleWebSocketConn(wsConn *websocket.Conn) {
	gwlog.Debugf("WebSocket Connection: %s", wsConn.RemoteAddr())
	wsConn.PayloadType = websocket.BinaryFrame
	service.handleClientConnection(wsConn)
}

func (service *ChannelService) handleClientConnection(conn net.Conn) {
	if service.runState.Load() != rsRunning {
		// terminating, not accepting more connections
		conn.Close()
		return
	}

	cp := newClientProxy(service, conn)
	if consts.DEBUG_CLIENTS {
		gwlog.Debugf("%s: client %s connected", service, cp)
	}
	cp.serve()
}

func (service *ChannelService) onClientProxyClose(cp *ClientProxy) {
	if cp.playerID != 0 {
		service.sync.Disconnect(cp)
	}
}
