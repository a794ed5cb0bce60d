package storage

import (
	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/typeconv"
)

const (
	// KindCharacter is the document kind of characters, saved by channels and login
	KindCharacter = "character"
	// KindPlayer is the document kind of canonical player records, saved by the world
	KindPlayer = "player"
)

// Character is the persistent part of a player
type Character struct {
	ID      common.PlayerID
	Name    string
	Level   uint8
	Job     int16
	Map     common.MapID
	GMLevel int32
	Admin   bool
}

// ToDocument converts the character to a storage document
func (c *Character) ToDocument() map[string]interface{} {
	return map[string]interface{}{
		"name":    c.Name,
		"level":   int64(c.Level),
		"job":     int64(c.Job),
		"map":     int64(c.Map),
		"gmlevel": int64(c.GMLevel),
		"admin":   c.Admin,
	}
}

// CharacterFromDocument converts a storage document to a character
func CharacterFromDocument(id common.PlayerID, doc map[string]interface{}) (c *Character, err error) {
	defer func() {
		if e := recover(); e != nil {
			c, err = nil, errors.Errorf("bad character document %d: %v", id, e)
		}
	}()

	c = &Character{ID: id}
	c.Name, _ = doc["name"].(string)
	c.Level = uint8(intField(doc, "level"))
	c.Job = int16(intField(doc, "job"))
	c.Map = common.MapID(intField(doc, "map"))
	c.GMLevel = int32(intField(doc, "gmlevel"))
	c.Admin, _ = doc["admin"].(bool)
	return c, nil
}

func intField(doc map[string]interface{}, key string) int64 {
	v, ok := doc[key]
	if !ok || v == nil {
		return 0
	}
	return typeconv.Int(v)
}

// PlayerDocument is the world's persistent view of a player
type PlayerDocument struct {
	Character
	// Listed holds the players this player has on its buddy list
	Listed []common.PlayerID
}

// ToDocument converts the player to a storage document
func (p *PlayerDocument) ToDocument() map[string]interface{} {
	doc := p.Character.ToDocument()
	listed := make([]interface{}, len(p.Listed))
	for i, id := range p.Listed {
		listed[i] = int64(id)
	}
	doc["listed"] = listed
	return doc
}

// PlayerFromDocument converts a storage document to a player
func PlayerFromDocument(id common.PlayerID, doc map[string]interface{}) (p *PlayerDocument, err error) {
	c, err := CharacterFromDocument(id, doc)
	if err != nil {
		return nil, err
	}
	p = &PlayerDocument{Character: *c}
	defer func() {
		if e := recover(); e != nil {
			p, err = nil, errors.Errorf("bad player document %d: %v", id, e)
		}
	}()
	if listed, ok := doc["listed"].([]interface{}); ok {
		for _, v := range listed {
			p.Listed = append(p.Listed, common.PlayerID(typeconv.Int(v)))
		}
	}
	return p, nil
}

// SaveCharacter saves a character document
func (s *Storage) SaveCharacter(c *Character, callback SaveCallbackFunc) {
	s.Save(KindCharacter, c.ID.Key(), c.ToDocument(), callback)
}

// LoadCharacter loads a character document, the character is nil if it does not exist
func (s *Storage) LoadCharacter(id common.PlayerID, callback func(c *Character, err error)) {
	s.Load(KindCharacter, id.Key(), func(data map[string]interface{}, err error) {
		if err != nil || data == nil {
			callback(nil, err)
			return
		}
		callback(CharacterFromDocument(id, data))
	})
}

// SavePlayer saves a player document
func (s *Storage) SavePlayer(p *PlayerDocument, callback SaveCallbackFunc) {
	s.Save(KindPlayer, p.ID.Key(), p.ToDocument(), callback)
}

// DeletePlayer deletes the world's document and the character document of the player
func (s *Storage) DeletePlayer(id common.PlayerID, callback SaveCallbackFunc) {
	s.Delete(KindPlayer, id.Key(), nil)
	s.Delete(KindCharacter, id.Key(), callback)
}

// LoadAllPlayers loads every player document, skipping malformed ones
func (s *Storage) LoadAllPlayers(callback func(players []*PlayerDocument, err error)) {
	s.LoadAll(KindPlayer, func(docs map[string]map[string]interface{}, err error) {
		if err != nil {
			callback(nil, err)
			return
		}
		players := make([]*PlayerDocument, 0, len(docs))
		for key, doc := range docs {
			id, err := common.ParsePlayerID(key)
			if err != nil {
				continue
			}
			p, err := PlayerFromDocument(id, doc)
			if err != nil {
				continue
			}
			players = append(players, p)
		}
		callback(players, nil)
	})
}
