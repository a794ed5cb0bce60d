package channelsync

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/presence"
	"github.com/xiaonanln/chanworld/engine/proto"
)

// GroupChat delivers chat to local recipients and relays the rest through the world in one message
func (cs *ChannelSync) GroupChat(chatType proto.ChatType, sender common.PlayerID, recipients []common.PlayerID, text string) error {
	if err := cs.connected(sender); err != nil {
		return err
	}
	name := cs.records.Get(sender).Name
	var remote []common.PlayerID
	for _, rid := range recipients {
		if s := cs.sessions[rid]; s != nil {
			s.SendChat(chatType, name, text)
		} else {
			remote = append(remote, rid)
		}
	}
	if len(remote) > 0 {
		return cs.world.SendChatGroup(chatType, sender, remote, text)
	}
	return nil
}

// GmChat sends the text to every online GM
func (cs *ChannelSync) GmChat(sender common.PlayerID, text string) error {
	if err := cs.connected(sender); err != nil {
		return err
	}
	name := cs.records.Get(sender).Name
	msg := fmt.Sprintf("%s [ch%d] : %s", name, cs.id, text)
	var remote []common.PlayerID
	for _, gid := range cs.records.GMs().ToList() {
		if s := cs.sessions[gid]; s != nil {
			s.SendChat(proto.CHAT_GM, name, msg)
		} else if r := cs.records.Get(gid); r != nil && r.IsOnline() {
			remote = append(remote, gid)
		}
	}
	if len(remote) > 0 {
		return cs.world.SendChatGroup(proto.CHAT_GM, sender, remote, msg)
	}
	return nil
}

// HandleChatGroup delivers relayed chat to the local recipients
func (cs *ChannelSync) HandleChatGroup(chatType proto.ChatType, sender common.PlayerID, recipients []common.PlayerID, text string) {
	name := ""
	if r := cs.records.Get(sender); r != nil {
		name = r.Name
	}
	for _, rid := range recipients {
		if s := cs.sessions[rid]; s != nil {
			s.SendChat(chatType, name, text)
		}
	}
}

// HandleBroadcast sends a world notice to every connected player
func (cs *ChannelSync) HandleBroadcast(text string) {
	for _, s := range cs.sessions {
		s.SendNotice(text)
	}
}

// AddFollower makes follower follow target across map changes
func (cs *ChannelSync) AddFollower(follower, target common.PlayerID) error {
	if err := cs.connected(follower); err != nil {
		return err
	}
	if err := cs.connected(target); err != nil {
		return err
	}
	for id := target; ; {
		if id == follower {
			return errors.Errorf("player %d can not follow player %d", follower, target)
		}
		next, ok := cs.followers[id]
		if !ok {
			break
		}
		id = next
	}
	cs.followers[follower] = target
	return nil
}

// StopFollowing ends the following of the player
func (cs *ChannelSync) StopFollowing(follower common.PlayerID) {
	delete(cs.followers, follower)
}

// Following returns the player followed by follower
func (cs *ChannelSync) Following(follower common.PlayerID) (common.PlayerID, bool) {
	target, ok := cs.followers[follower]
	return target, ok
}

func (cs *ChannelSync) followersOf(id common.PlayerID) []common.PlayerID {
	var list []common.PlayerID
	for f, target := range cs.followers {
		if target == id {
			list = append(list, f)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i] < list[j]
	})
	return list
}

// UpdatePlayerMap records the map change of a player and drags its followers along
func (cs *ChannelSync) UpdatePlayerMap(id common.PlayerID, m common.MapID) error {
	if err := cs.connected(id); err != nil {
		return err
	}
	for _, f := range cs.followersOf(id) {
		if err := cs.UpdatePlayerMap(f, m); err != nil {
			gwlog.TraceError("%s: drag follower %d of %d: %s", cs, f, id, err)
			delete(cs.followers, f)
			continue
		}
		cs.sessions[f].SendChangeMap(m)
	}
	return cs.localDelta(id, presence.Map, func(r *presence.PlayerRecord) {
		r.Map = m
	})
}
