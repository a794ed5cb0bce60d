package proto

// MsgType is the type of message types
type MsgType uint16

// Message types between world and channels / login
const (
	// MT_INVALID is the invalid message type
	MT_INVALID = iota

	// MT_CHANNEL_REGISTER is sent by a channel when it connects to the world
	MT_CHANNEL_REGISTER
	// MT_CHANNEL_SNAPSHOT is sent by the world to a registered channel with all records and parties
	MT_CHANNEL_SNAPSHOT
	// MT_CHANNEL_LOAD is sent by channels periodically with load info
	MT_CHANNEL_LOAD
	// MT_LOGIN_REGISTER is sent by the login process when it connects to the world
	MT_LOGIN_REGISTER

	// MT_PLAYER_FULL carries a full player record
	MT_PLAYER_FULL
	// MT_PLAYER_DELTA carries some fields of a player record
	MT_PLAYER_DELTA
	// MT_PLAYER_CONNECTABLE_NEW tells a channel to expect a player connection
	MT_PLAYER_CONNECTABLE_NEW
	// MT_PLAYER_CONNECTABLE_ESTABLISHED acks MT_PLAYER_CONNECTABLE_NEW
	MT_PLAYER_CONNECTABLE_ESTABLISHED
	// MT_PLAYER_CONNECTABLE_DELETE cancels an expected player connection
	MT_PLAYER_CONNECTABLE_DELETE
	// MT_PLAYER_CHANGE_CHANNEL_REQUEST is sent by the origin channel to start a handover
	MT_PLAYER_CHANGE_CHANNEL_REQUEST
	// MT_PLAYER_CHANGE_CHANNEL_GO tells the origin channel where to redirect the client
	MT_PLAYER_CHANGE_CHANNEL_GO

	// MT_PARTY_CREATE creates a party
	MT_PARTY_CREATE
	// MT_PARTY_DISBAND disbands a party
	MT_PARTY_DISBAND
	// MT_PARTY_SWITCH_LEADER changes the party leader
	MT_PARTY_SWITCH_LEADER
	// MT_PARTY_ADD_MEMBER adds a party member
	MT_PARTY_ADD_MEMBER
	// MT_PARTY_REMOVE_MEMBER removes (or kicks) a party member
	MT_PARTY_REMOVE_MEMBER

	// MT_BUDDY_INVITE lists a buddy one way and invites back
	MT_BUDDY_INVITE
	// MT_BUDDY_ACCEPT_INVITE accepts a buddy invite, making the pair mutual
	MT_BUDDY_ACCEPT_INVITE
	// MT_BUDDY_REMOVE unlists a buddy
	MT_BUDDY_REMOVE
	// MT_BUDDY_READD lists a buddy again
	MT_BUDDY_READD

	// MT_CHAT_GROUP relays a chat message to an explicit recipient list
	MT_CHAT_GROUP
	// MT_CHAT_BROADCAST is a notice to every connected player
	MT_CHAT_BROADCAST

	// MT_LOGIN_CONNECTABLE asks the world to make a channel expect a logging in player
	MT_LOGIN_CONNECTABLE
	// MT_LOGIN_CHANNEL_GO tells the login process where to redirect the client
	MT_LOGIN_CHANNEL_GO
	// MT_CHARACTER_CREATED registers a new character to the world
	MT_CHARACTER_CREATED
	// MT_CHARACTER_DELETED unregisters a character from the world
	MT_CHARACTER_DELETED
)

// Message types between clients and channels / login
const (
	// MT_CLIENT_MSG_TYPE_START is the first client message type
	MT_CLIENT_MSG_TYPE_START = 1000 + iota

	// MT_CLIENT_CONNECT is the first message on a channel connection
	MT_CLIENT_CONNECT
	// MT_CLIENT_ESTABLISHED carries the player record and effects after a successful connect
	MT_CLIENT_ESTABLISHED
	// MT_CLIENT_CHANGE_CHANNEL requests a channel switch
	MT_CLIENT_CHANGE_CHANNEL
	// MT_CLIENT_CHANNEL_GO redirects the client to another server
	MT_CLIENT_CHANNEL_GO
	// MT_CLIENT_CANNOT_GO tells the client that the channel switch failed
	MT_CLIENT_CANNOT_GO
	// MT_CLIENT_CHANGE_MAP moves the player to a map, in both directions
	MT_CLIENT_CHANGE_MAP
	// MT_CLIENT_SET_CASH_SHOP enters or leaves the cash shop
	MT_CLIENT_SET_CASH_SHOP
	// MT_CLIENT_SET_MTS enters or leaves the mts
	MT_CLIENT_SET_MTS
	// MT_CLIENT_PROGRESS reports a level or job change
	MT_CLIENT_PROGRESS
	// MT_CLIENT_ADD_EFFECT starts a buff or summon, in both directions
	MT_CLIENT_ADD_EFFECT
	// MT_CLIENT_EFFECT_EXPIRED tells the client an effect ran out
	MT_CLIENT_EFFECT_EXPIRED

	// MT_CLIENT_GROUP_CHAT sends chat to a recipient list
	MT_CLIENT_GROUP_CHAT
	// MT_CLIENT_GM_CHAT sends chat to all GMs
	MT_CLIENT_GM_CHAT
	// MT_CLIENT_CHAT delivers a chat message
	MT_CLIENT_CHAT
	// MT_CLIENT_NOTICE delivers a server notice
	MT_CLIENT_NOTICE

	// MT_CLIENT_FOLLOW starts following another player
	MT_CLIENT_FOLLOW
	// MT_CLIENT_STOP_FOLLOW stops following
	MT_CLIENT_STOP_FOLLOW

	// MT_CLIENT_PARTY_CREATE creates a party led by the player
	MT_CLIENT_PARTY_CREATE
	// MT_CLIENT_PARTY_JOIN joins a party
	MT_CLIENT_PARTY_JOIN
	// MT_CLIENT_PARTY_LEAVE leaves the party
	MT_CLIENT_PARTY_LEAVE
	// MT_CLIENT_PARTY_KICK kicks a member
	MT_CLIENT_PARTY_KICK
	// MT_CLIENT_PARTY_CHANGE_LEADER gives leadership to a member
	MT_CLIENT_PARTY_CHANGE_LEADER
	// MT_CLIENT_PARTY_DISBAND disbands the party
	MT_CLIENT_PARTY_DISBAND
	// MT_CLIENT_PARTY_UPDATE delivers the party view
	MT_CLIENT_PARTY_UPDATE

	// MT_CLIENT_BUDDY_INVITE invites a player by name
	MT_CLIENT_BUDDY_INVITE
	// MT_CLIENT_BUDDY_ACCEPT accepts an invite
	MT_CLIENT_BUDDY_ACCEPT
	// MT_CLIENT_BUDDY_REMOVE removes a buddy
	MT_CLIENT_BUDDY_REMOVE
	// MT_CLIENT_BUDDY_READD adds a removed buddy back
	MT_CLIENT_BUDDY_READD
	// MT_CLIENT_BUDDY_INVITED delivers a buddy invite
	MT_CLIENT_BUDDY_INVITED
	// MT_CLIENT_BUDDY_PRESENCE delivers the channel of a buddy
	MT_CLIENT_BUDDY_PRESENCE

	// MT_CLIENT_CREATE_CHARACTER creates a character on login
	MT_CLIENT_CREATE_CHARACTER
	// MT_CLIENT_CHARACTER_CREATED delivers the new character id
	MT_CLIENT_CHARACTER_CREATED
	// MT_CLIENT_DELETE_CHARACTER deletes a character on login
	MT_CLIENT_DELETE_CHARACTER
	// MT_CLIENT_SELECT_CHARACTER enters the game with a character, channel 0 means any
	MT_CLIENT_SELECT_CHARACTER
)

// ChatType distinguishes group chats
type ChatType uint8

const (
	// CHAT_BUDDY is chat among buddies
	CHAT_BUDDY ChatType = iota
	// CHAT_PARTY is chat among party members
	CHAT_PARTY
	// CHAT_GUILD is chat among guild members
	CHAT_GUILD
	// CHAT_GM is chat among GMs
	CHAT_GM
)

// ChannelLoadInfo is the load report of a channel
type ChannelLoadInfo struct {
	CPUPercent float64 `msgpack:"cp"`
	Population int     `msgpack:"pop"`
}
