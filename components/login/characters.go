package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/presence"
	"github.com/xiaonanln/chanworld/engine/storage"
)

const (
	minNameLength = 4
	maxNameLength = 12
)

var (
	errBadName          = errors.New("bad character name")
	errNameTaken        = errors.New("character name is taken")
	errUnknownCharacter = errors.New("unknown character")
	errAlreadySelecting = errors.New("character is already being selected")
)

type worldLink interface {
	SendLoginConnectable(id common.PlayerID, channel common.ChannelID, ip string) error
	SendCharacterCreated(r *presence.PlayerRecord) error
	SendCharacterDeleted(id common.PlayerID) error
}

type characterStore interface {
	SaveCharacter(c *storage.Character, callback storage.SaveCallbackFunc)
}

type loginClient interface {
	RemoteIP() string
	SendCharacterCreatedToClient(id common.PlayerID) error
	SendClientChannelGo(ip string, port int) error
	SendCannotGo() error
}

// characterDirectory owns the character names and ids and tracks clients waiting for a channel
type characterDirectory struct {
	world worldLink
	store characterStore

	names      presence.NameIndex
	characters map[common.PlayerID]*storage.Character
	nextID     common.PlayerID
	selecting  map[common.PlayerID]loginClient
}

func newCharacterDirectory(world worldLink, store characterStore) *characterDirectory {
	return &characterDirectory{
		world:      world,
		store:      store,
		characters: map[common.PlayerID]*storage.Character{},
		nextID:     1,
		selecting:  map[common.PlayerID]loginClient{},
	}
}

func (cd *characterDirectory) String() string {
	return fmt.Sprintf("characterDirectory<%d characters, %d selecting>", len(cd.characters), len(cd.selecting))
}

func (cd *characterDirectory) load(characters []*storage.Character) {
	for _, c := range characters {
		cd.characters[c.ID] = c
		cd.names.Set(c.Name, c.ID)
		if c.ID >= cd.nextID {
			cd.nextID = c.ID + 1
		}
	}
}

func recordOf(c *storage.Character) *presence.PlayerRecord {
	r := presence.NewPlaceholder(c.ID)
	r.Name = c.Name
	r.Level = c.Level
	r.Job = c.Job
	r.Map = c.Map
	r.GMLevel = c.GMLevel
	r.Admin = c.Admin
	r.Initialized = true
	return r
}

// create saves a new character and tells the world once it is stored
func (cd *characterDirectory) create(client loginClient, name string) (common.PlayerID, error) {
	if len(name) < minNameLength || len(name) > maxNameLength {
		client.SendCharacterCreatedToClient(0)
		return 0, errBadName
	}
	if _, ok := cd.names.Lookup(name); ok {
		client.SendCharacterCreatedToClient(0)
		return 0, errNameTaken
	}

	c := &storage.Character{ID: cd.nextID, Name: name, Level: 1}
	cd.nextID++
	cd.characters[c.ID] = c
	cd.names.Set(c.Name, c.ID)

	cd.store.SaveCharacter(c, func() {
		if err := cd.world.SendCharacterCreated(recordOf(c)); err != nil {
			gwlog.Errorf("%s: send created character %d failed: %s", cd, c.ID, err)
		}
		client.SendCharacterCreatedToClient(c.ID)
	})
	return c.ID, nil
}

func (cd *characterDirectory) remove(id common.PlayerID) error {
	c := cd.characters[id]
	if c == nil {
		return errUnknownCharacter
	}
	delete(cd.characters, id)
	cd.names.Del(c.Name, id)
	if client := cd.selecting[id]; client != nil {
		delete(cd.selecting, id)
		client.SendCannotGo()
	}
	return cd.world.SendCharacterDeleted(id)
}

// selectCharacter asks the world for a channel, NoChannel lets the world pick one
func (cd *characterDirectory) selectCharacter(client loginClient, id common.PlayerID, channel common.ChannelID) error {
	if cd.characters[id] == nil {
		client.SendCannotGo()
		return errUnknownCharacter
	}
	if cd.selecting[id] != nil {
		client.SendCannotGo()
		return errAlreadySelecting
	}
	if err := cd.world.SendLoginConnectable(id, channel, client.RemoteIP()); err != nil {
		client.SendCannotGo()
		return err
	}
	cd.selecting[id] = client
	return nil
}

// channelGo redirects the waiting client, an empty ip means the world rejected the login
func (cd *characterDirectory) channelGo(id common.PlayerID, ip string, port int) {
	client := cd.selecting[id]
	if client == nil {
		gwlog.Warnf("%s: channel go for player %d, but nobody is waiting", cd, id)
		return
	}
	delete(cd.selecting, id)
	if ip == "" {
		client.SendCannotGo()
		return
	}
	client.SendClientChannelGo(ip, port)
}

func (cd *characterDirectory) clientClosed(client loginClient) {
	for id, c := range cd.selecting {
		if c == client {
			delete(cd.selecting, id)
		}
	}
}

// worldLost fails every pending selection, the world forgets them on reconnect
func (cd *characterDirectory) worldLost() {
	for id, client := range cd.selecting {
		delete(cd.selecting, id)
		client.SendCannotGo()
	}
}
