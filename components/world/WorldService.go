package main

import (
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/config"
	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/gwutils"
	"github.com/xiaonanln/chanworld/engine/gwvar"
	"github.com/xiaonanln/chanworld/engine/netutil"
	"github.com/xiaonanln/chanworld/engine/opmon"
	"github.com/xiaonanln/chanworld/engine/post"
	"github.com/xiaonanln/chanworld/engine/presence"
	"github.com/xiaonanln/chanworld/engine/proto"
	"github.com/xiaonanln/chanworld/engine/storage"
	"github.com/xiaonanln/chanworld/engine/worldsync"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	timer "github.com/xiaonanln/goTimer"
)

const (
	rsNotRunning = iota
	rsRunning
	rsTerminating
	rsTerminated
)

type packetQueueItem struct { // packet queue from world client proxies
	proxy   *WorldClientProxy
	msgtype proto.MsgType
	packet  *netutil.Packet
}

// WorldService owns the canonical player records and routes sync messages between channels
type WorldService struct {
	config      *config.WorldConfig
	sync        *worldsync.WorldSync
	storage     *storage.Storage
	posts       *post.Queue
	packetQueue chan packetQueueItem

	channels map[common.ChannelID]*WorldClientProxy
	login    *WorldClientProxy

	runState   xnsyncutil.AtomicInt
	terminated *xnsyncutil.OneTimeCond
}

func newWorldService(cfg *config.WorldConfig) *WorldService {
	service := &WorldService{
		config:      cfg,
		posts:       post.NewQueue(),
		packetQueue: make(chan packetQueueItem, consts.WORLD_SERVICE_PACKET_QUEUE_SIZE),
		channels:    map[common.ChannelID]*WorldClientProxy{},
		terminated:  xnsyncutil.NewOneTimeCond(),
	}
	service.storage = storage.New(config.GetStorage(), service.posts)
	service.sync = worldsync.New(service, service.storage, config.Get().ChannelCommon.MaxPopulation)
	return service
}

func (service *WorldService) String() string {
	return fmt.Sprintf("WorldService<%s:%d>", service.config.Ip, service.config.Port)
}

func (service *WorldService) run() {
	service.runState.Store(rsRunning)
	service.storage.Start()

	// channels are accepted only after every player is loaded
	service.storage.LoadAllPlayers(func(players []*storage.PlayerDocument, err error) {
		if err != nil {
			gwlog.Fatalf("%s: load players failed: %s", service, err)
		}
		service.sync.LoadPlayers(players)
		host := fmt.Sprintf("%s:%d", service.config.Ip, service.config.Port)
		go netutil.ServeTCPForever(host, service)
	})

	timer.AddTimer(consts.WORLD_STATUS_LOG_INTERVAL, func() {
		gwlog.Infof("%s: %s, %d channels connected, login connected: %v", service, service.sync, len(service.channels), service.login != nil)
	})
	gwutils.RepeatUntilPanicless(service.serveRoutine)
}

func (service *WorldService) serveRoutine() {
	ticker := time.Tick(consts.WORLD_SERVICE_TICK_INTERVAL)
	for {
		select {
		case item := <-service.packetQueue:
			op := opmon.StartOperation("world.handlePacket")
			service.handlePacket(item.proxy, item.msgtype, item.packet)
			item.packet.Release()
			op.Finish(time.Millisecond * 100)
		case <-ticker:
			timer.Tick()
		case <-service.posts.C():
		}
		service.posts.Tick()
	}
}

func (service *WorldService) terminate() {
	if service.runState.Load() != rsRunning {
		return
	}
	service.runState.Store(rsTerminating)
	service.storage.Shutdown()
	service.runState.Store(rsTerminated)
	service.terminated.Signal()
}

// ServeTCPConnection handles TCP connections from channels and the login process
func (service *WorldService) ServeTCPConnection(conn net.Conn) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetReadBuffer(consts.WORLD_LINK_READ_BUFFER_SIZE)
		tcpConn.SetWriteBuffer(consts.WORLD_LINK_WRITE_BUFFER_SIZE)
	}
	newWorldClientProxy(service, conn).serve()
}

// Channel returns the link of a connected channel
func (service *WorldService) Channel(id common.ChannelID) worldsync.ChannelLink {
	if proxy := service.channels[id]; proxy != nil {
		return proxy
	}
	return nil
}

// Channels returns the ids of connected channels in ascending order
func (service *WorldService) Channels() []common.ChannelID {
	ids := make([]common.ChannelID, 0, len(service.channels))
	for id := range service.channels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// Login returns the link of the login process
func (service *WorldService) Login() worldsync.LoginLink {
	if service.login != nil {
		return service.login
	}
	return nil
}

func (service *WorldService) onProxyClose(proxy *WorldClientProxy) {
	if proxy.channelID != common.NoChannel && service.channels[proxy.channelID] == proxy {
		delete(service.channels, proxy.channelID)
		gwvar.ConnectedChannels.Set(int64(len(service.channels)))
		service.sync.ChannelDisconnected(proxy.channelID)
	}
	if proxy.isLogin && service.login == proxy {
		gwlog.Warnf("%s: login process disconnected", service)
		service.login = nil
	}
}

func (service *WorldService) handleChannelRegister(proxy *WorldClientProxy, id common.ChannelID, ip string, port int) {
	if config.GetChannel(id) == nil {
		gwlog.TraceError("%s: %s registered as unknown channel %d", service, proxy, id)
		proxy.Close()
		return
	}
	if old := service.channels[id]; old != nil && old != proxy {
		gwlog.Warnf("%s: channel %d reconnected, closing %s", service, id, old)
		old.Close()
	}
	proxy.channelID = id
	service.channels[id] = proxy
	gwvar.ConnectedChannels.Set(int64(len(service.channels)))
	service.sync.RegisterChannel(id, ip, port)
}

func (service *WorldService) handleLoginRegister(proxy *WorldClientProxy) {
	if service.login != nil && service.login != proxy {
		service.login.Close()
	}
	gwlog.Infof("%s: login process registered: %s", service, proxy)
	proxy.isLogin = true
	service.login = proxy
}

func (service *WorldService) handlePacket(proxy *WorldClientProxy, msgtype proto.MsgType, pkt *netutil.Packet) {
	switch msgtype {
	case proto.MT_CHANNEL_REGISTER:
		id := common.ChannelID(pkt.ReadUint16())
		ip := pkt.ReadVarStr()
		port := int(pkt.ReadUint32())
		service.handleChannelRegister(proxy, id, ip, port)
		return
	case proto.MT_LOGIN_REGISTER:
		service.handleLoginRegister(proxy)
		return
	}

	if proxy.isLogin {
		service.handleLoginPacket(msgtype, pkt)
	} else if proxy.channelID != common.NoChannel {
		service.handleChannelPacket(proxy.channelID, msgtype, pkt)
	} else {
		gwlog.TraceError("%s: msgtype %d from unregistered %s", service, msgtype, proxy)
	}
}

func (service *WorldService) handleLoginPacket(msgtype proto.MsgType, pkt *netutil.Packet) {
	ws := service.sync
	switch msgtype {
	case proto.MT_LOGIN_CONNECTABLE:
		id := common.PlayerID(pkt.ReadInt32())
		channel := common.ChannelID(pkt.ReadUint16())
		ip := pkt.ReadVarStr()
		ws.LoginConnectable(id, channel, ip)
	case proto.MT_CHARACTER_CREATED:
		ws.CharacterCreated(proto.ReadRecord(pkt))
	case proto.MT_CHARACTER_DELETED:
		ws.CharacterDeleted(common.PlayerID(pkt.ReadInt32()))
	case proto.MT_CHAT_BROADCAST:
		ws.Broadcast(pkt.ReadVarStr())
	default:
		gwlog.TraceError("%s: unknown msgtype %d from login", service, msgtype)
	}
}

func (service *WorldService) handleChannelPacket(origin common.ChannelID, msgtype proto.MsgType, pkt *netutil.Packet) {
	ws := service.sync
	var err error
	switch msgtype {
	case proto.MT_CHANNEL_LOAD:
		var info proto.ChannelLoadInfo
		pkt.ReadData(&info)
		ws.ChannelLoad(origin, info)
	case proto.MT_PLAYER_FULL:
		ws.RouteUpdate(origin, presence.NewFullUpdate(proto.ReadRecord(pkt)))
	case proto.MT_PLAYER_DELTA:
		ws.RouteUpdate(origin, proto.ReadDelta(pkt))
	case proto.MT_PLAYER_CONNECTABLE_ESTABLISHED:
		ws.ConnectableEstablished(origin, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_PLAYER_CHANGE_CHANNEL_REQUEST:
		id := common.PlayerID(pkt.ReadInt32())
		dest := common.ChannelID(pkt.ReadUint16())
		ip := pkt.ReadVarStr()
		blob := pkt.ReadVarBytes()
		ws.ChangeChannelRequest(origin, id, dest, ip, blob)
	case proto.MT_PARTY_CREATE:
		_ = pkt.ReadInt32() // allocated by the world
		_, err = ws.CreateParty(common.PlayerID(pkt.ReadInt32()))
	case proto.MT_PARTY_DISBAND:
		err = ws.DisbandParty(common.PartyID(pkt.ReadInt32()))
	case proto.MT_PARTY_SWITCH_LEADER:
		id := common.PartyID(pkt.ReadInt32())
		err = ws.TransferLeadership(id, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_PARTY_ADD_MEMBER:
		id := common.PartyID(pkt.ReadInt32())
		err = ws.AddMember(id, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_PARTY_REMOVE_MEMBER:
		id := common.PartyID(pkt.ReadInt32())
		player := common.PlayerID(pkt.ReadInt32())
		err = ws.RemoveMember(id, player, pkt.ReadBool())
	case proto.MT_BUDDY_INVITE:
		inviter := common.PlayerID(pkt.ReadInt32())
		invitee := common.PlayerID(pkt.ReadInt32())
		err = ws.Invite(inviter, invitee, pkt.ReadVarStr())
	case proto.MT_BUDDY_ACCEPT_INVITE:
		invitee := common.PlayerID(pkt.ReadInt32())
		err = ws.AcceptInvite(invitee, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_BUDDY_REMOVE:
		owner := common.PlayerID(pkt.ReadInt32())
		err = ws.Remove(owner, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_BUDDY_READD:
		owner := common.PlayerID(pkt.ReadInt32())
		err = ws.Readd(owner, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_CHAT_GROUP:
		chatType := proto.ChatType(pkt.ReadOneByte())
		sender := common.PlayerID(pkt.ReadInt32())
		recipients := proto.ReadPlayerIDs(pkt)
		ws.ChatGroup(chatType, sender, recipients, pkt.ReadVarStr())
	case proto.MT_CHAT_BROADCAST:
		ws.Broadcast(pkt.ReadVarStr())
	default:
		gwlog.TraceError("%s: unknown msgtype %d from channel %d", service, msgtype, origin)
	}

	if err != nil {
		gwlog.Warnf("%s: msgtype %d from channel %d rejected: %s", service, msgtype, origin, err)
	}
}
