package common

import (
	"fmt"
	"strconv"
)

// PlayerID is the numeric, stable id of a character
type PlayerID int32

// PartyID identifies a party, 0 means no party
type PartyID int32

// ChannelID identifies a channel process, channels are numbered from 1 and 0 means offline
type ChannelID uint16

// MapID identifies a game map
type MapID int32

// NoChannel is the channel of offline players
const NoChannel ChannelID = 0

// NoParty is the party of players not in any party
const NoParty PartyID = 0

// IsOnline returns if the channel id refers to a real channel
func (cid ChannelID) IsOnline() bool {
	return cid != NoChannel
}

func (cid ChannelID) String() string {
	if cid == NoChannel {
		return "offline"
	}
	return fmt.Sprintf("ch%d", uint16(cid))
}

// Key returns the storage key of the player
func (id PlayerID) Key() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParsePlayerID parses the storage key of a player
func ParsePlayerID(key string) (PlayerID, error) {
	v, err := strconv.ParseInt(key, 10, 32)
	if err != nil {
		return 0, err
	}
	return PlayerID(v), nil
}
