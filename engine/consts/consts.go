package consts

import "time"

// Handover
const (
	// MAX_HANDOVER_WINDOW is how long a pending handover may wait for the client's new connection
	MAX_HANDOVER_WINDOW = 5000 * time.Millisecond
	// PENDING_HANDOVER_SWEEP_INTERVAL is the interval of the background sweep of expired pending handovers
	PENDING_HANDOVER_SWEEP_INTERVAL = time.Second
	// DEFAULT_HANDOVER_ACK_TIMEOUT is how long the origin channel waits for ChangeChannelGo
	DEFAULT_HANDOVER_ACK_TIMEOUT = 10 * time.Second
)

// Tunable Options
const (
	// For Underlying Networking
	// BUFFERED_READ_BUFFSIZE is the read buffer size for buffered connections
	BUFFERED_READ_BUFFSIZE = 16384
	// BUFFERED_WRITE_BUFFSIZE is the write buffer size for buffered connections
	BUFFERED_WRITE_BUFFSIZE = 16384

	// For World
	// WORLD_LINK_WRITE_BUFFER_SIZE is the socket write buffer of world <-> channel links
	WORLD_LINK_WRITE_BUFFER_SIZE = 1024 * 1024
	// WORLD_LINK_READ_BUFFER_SIZE is the socket read buffer of world <-> channel links
	WORLD_LINK_READ_BUFFER_SIZE = 1024 * 1024
	// WORLD_SERVICE_PACKET_QUEUE_SIZE is the max packet queue length of world service
	WORLD_SERVICE_PACKET_QUEUE_SIZE = 10000
	// WORLD_SERVICE_TICK_INTERVAL is the tick interval to tick timers in world service
	WORLD_SERVICE_TICK_INTERVAL = time.Millisecond * 100
	// WORLD_STATUS_LOG_INTERVAL is the interval of logging the world status
	WORLD_STATUS_LOG_INTERVAL = time.Minute

	// For Channel Service
	// CHANNEL_SERVICE_PACKET_QUEUE_SIZE is the max packet queue length of channel service
	CHANNEL_SERVICE_PACKET_QUEUE_SIZE = 10000
	// CHANNEL_SERVICE_TICK_INTERVAL is the tick interval to tick timers in channel service
	CHANNEL_SERVICE_TICK_INTERVAL = time.Millisecond * 10 // affects timer resolution
	// EFFECT_EXPIRE_CHECK_INTERVAL is the interval of checking expired buffs & summons
	EFFECT_EXPIRE_CHECK_INTERVAL = time.Millisecond * 100

	// For Login Service
	// LOGIN_SERVICE_PACKET_QUEUE_SIZE is the max packet queue length of login service
	LOGIN_SERVICE_PACKET_QUEUE_SIZE = 1000
	// LOGIN_SERVICE_TICK_INTERVAL is the tick interval to tick timers in login service
	LOGIN_SERVICE_TICK_INTERVAL = time.Millisecond * 100

	// For Client Connections
	// CLIENT_PROXY_WRITE_BUFFER_SIZE is the write buffer size for client connections
	CLIENT_PROXY_WRITE_BUFFER_SIZE = 1024 * 1024
	// CLIENT_PROXY_READ_BUFFER_SIZE is the read buffer size for client connections
	CLIENT_PROXY_READ_BUFFER_SIZE = 1024 * 1024
	// CLIENT_PROXY_SET_TCP_NO_DELAY = true sets client connections to TcpNoDelay
	CLIENT_PROXY_SET_TCP_NO_DELAY = true

	// For Storage
	// STORAGE_OPERATION_WARN_THRESHOLD is the duration above which storage operations are logged
	STORAGE_OPERATION_WARN_THRESHOLD = time.Millisecond * 100

	// For Operation Monitor
	// OPMON_DUMP_INTERVAL is the interval to print opmon infos to output, 0 to disable
	OPMON_DUMP_INTERVAL = 0
)

// Game rules the sync layer has to enforce
const (
	// MAX_PARTY_MEMBERS is the party size limit
	MAX_PARTY_MEMBERS = 6
	// PARTY_ID_START is the first party id allocated by the world
	PARTY_ID_START = 1
)

// Debug Options
const (
	// DEBUG_PACKETS prints packet send/recv debug logs
	DEBUG_PACKETS = false
	// DEBUG_SAVE_LOAD prints save & load debug logs
	DEBUG_SAVE_LOAD = false
	// DEBUG_CLIENTS prints clients operation debug logs
	DEBUG_CLIENTS = false
	// DEBUG_HANDOVER prints handover debug logs
	DEBUG_HANDOVER = false
)
