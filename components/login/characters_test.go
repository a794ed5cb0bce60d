package main

import (
	"errors"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/presence"
	"github.com/xiaonanln/chanworld/engine/storage"
)

type connectableCall struct {
	id      common.PlayerID
	channel common.ChannelID
	ip      string
}

type fakeWorld struct {
	down        bool
	connectable []connectableCall
	created     []*presence.PlayerRecord
	deleted     []common.PlayerID
}

var errWorldDown = errors.New("world down")

func (w *fakeWorld) SendLoginConnectable(id common.PlayerID, channel common.ChannelID, ip string) error {
	if w.down {
		return errWorldDown
	}
	w.connectable = append(w.connectable, connectableCall{id, channel, ip})
	return nil
}

func (w *fakeWorld) SendCharacterCreated(r *presence.PlayerRecord) error {
	w.created = append(w.created, r)
	return nil
}

func (w *fakeWorld) SendCharacterDeleted(id common.PlayerID) error {
	w.deleted = append(w.deleted, id)
	return nil
}

type fakeStore struct {
	saved   []*storage.Character
	pending []storage.SaveCallbackFunc
}

func (s *fakeStore) SaveCharacter(c *storage.Character, callback storage.SaveCallbackFunc) {
	s.saved = append(s.saved, c)
	s.pending = append(s.pending, callback)
}

func (s *fakeStore) flush() {
	pending := s.pending
	s.pending = nil
	for _, cb := range pending {
		cb()
	}
}

type fakeClient struct {
	ip       string
	created  []common.PlayerID
	goIP     string
	goPort   int
	cannotGo int
}

func (c *fakeClient) RemoteIP() string { return c.ip }

func (c *fakeClient) SendCharacterCreatedToClient(id common.PlayerID) error {
	c.created = append(c.created, id)
	return nil
}

func (c *fakeClient) SendClientChannelGo(ip string, port int) error {
	c.goIP, c.goPort = ip, port
	return nil
}

func (c *fakeClient) SendCannotGo() error {
	c.cannotGo++
	return nil
}

func newTestDirectory() (*characterDirectory, *fakeWorld, *fakeStore) {
	world := &fakeWorld{}
	store := &fakeStore{}
	cd := newCharacterDirectory(world, store)
	cd.load([]*storage.Character{
		{ID: 3, Name: "Alice", Level: 30},
		{ID: 7, Name: "Bobby", Level: 12},
	})
	return cd, world, store
}

func TestLoadAllocatesAfterMaxID(t *testing.T) {
	cd, _, _ := newTestDirectory()
	assert.Equal(t, common.PlayerID(8), cd.nextID)
	assert.Equal(t, 2, cd.names.Len())
}

func TestCreateCharacter(t *testing.T) {
	cd, world, store := newTestDirectory()
	client := &fakeClient{ip: "10.0.0.1"}

	id, err := cd.create(client, "Carol")
	assert.Equal(t, nil, err)
	assert.Equal(t, common.PlayerID(8), id)
	assert.Equal(t, 1, len(store.saved))
	// the world hears about it only after the character is stored
	assert.Equal(t, 0, len(world.created))
	assert.Equal(t, 0, len(client.created))

	store.flush()
	assert.Equal(t, 1, len(world.created))
	r := world.created[0]
	assert.Equal(t, common.PlayerID(8), r.ID)
	assert.Equal(t, "Carol", r.Name)
	assert.Equal(t, uint8(1), r.Level)
	assert.Equal(t, common.NoChannel, r.Channel)
	assert.T(t, r.Initialized)
	assert.Equal(t, []common.PlayerID{8}, client.created)

	id, err = cd.create(client, "Dave1")
	assert.Equal(t, nil, err)
	assert.Equal(t, common.PlayerID(9), id)
}

func TestCreateCharacterNameTaken(t *testing.T) {
	cd, _, store := newTestDirectory()
	client := &fakeClient{}

	_, err := cd.create(client, "alice")
	assert.Equal(t, errNameTaken, err)
	assert.Equal(t, []common.PlayerID{0}, client.created)
	assert.Equal(t, 0, len(store.saved))

	_, err = cd.create(client, "Al")
	assert.Equal(t, errBadName, err)
	_, err = cd.create(client, "ThisNameIsTooLong")
	assert.Equal(t, errBadName, err)
	assert.Equal(t, []common.PlayerID{0, 0, 0}, client.created)
	assert.Equal(t, common.PlayerID(8), cd.nextID)
}

func TestDeleteCharacterFreesName(t *testing.T) {
	cd, world, _ := newTestDirectory()

	assert.Equal(t, nil, cd.remove(3))
	assert.Equal(t, []common.PlayerID{3}, world.deleted)
	assert.Equal(t, errUnknownCharacter, cd.remove(3))

	id, err := cd.create(&fakeClient{}, "Alice")
	assert.Equal(t, nil, err)
	// ids are never reused
	assert.Equal(t, common.PlayerID(8), id)
}

func TestSelectCharacterRedirects(t *testing.T) {
	cd, world, _ := newTestDirectory()
	client := &fakeClient{ip: "10.0.0.1"}

	assert.Equal(t, nil, cd.selectCharacter(client, 3, common.NoChannel))
	assert.Equal(t, []connectableCall{{3, common.NoChannel, "10.0.0.1"}}, world.connectable)
	assert.Equal(t, errAlreadySelecting, cd.selectCharacter(&fakeClient{}, 3, 2))

	cd.channelGo(3, "192.168.1.5", 8585)
	assert.Equal(t, "192.168.1.5", client.goIP)
	assert.Equal(t, 8585, client.goPort)
	assert.Equal(t, 0, len(cd.selecting))

	// a late answer is dropped
	cd.channelGo(3, "192.168.1.5", 8585)
	assert.Equal(t, 0, client.cannotGo)
}

func TestSelectCharacterRejected(t *testing.T) {
	cd, world, _ := newTestDirectory()
	client := &fakeClient{ip: "10.0.0.1"}

	assert.Equal(t, errUnknownCharacter, cd.selectCharacter(client, 99, 1))
	assert.Equal(t, 1, client.cannotGo)

	assert.Equal(t, nil, cd.selectCharacter(client, 7, 1))
	cd.channelGo(7, "", 0)
	assert.Equal(t, 2, client.cannotGo)
	assert.Equal(t, "", client.goIP)

	world.down = true
	assert.Equal(t, errWorldDown, cd.selectCharacter(client, 7, 1))
	assert.Equal(t, 3, client.cannotGo)
	assert.Equal(t, 0, len(cd.selecting))
}

func TestClientCloseAndWorldLost(t *testing.T) {
	cd, _, _ := newTestDirectory()
	gone := &fakeClient{}
	waiting := &fakeClient{}

	assert.Equal(t, nil, cd.selectCharacter(gone, 3, 1))
	assert.Equal(t, nil, cd.selectCharacter(waiting, 7, 1))
	cd.clientClosed(gone)
	assert.Equal(t, 1, len(cd.selecting))

	cd.worldLost()
	assert.Equal(t, 0, len(cd.selecting))
	assert.Equal(t, 0, gone.cannotGo)
	assert.Equal(t, 1, waiting.cannotGo)
}
