package presence

import (
	"sort"

	"github.com/xiaonanln/chanworld/engine/common"
)

// Cache holds the player records known to a process, with the name index and GM set
type Cache struct {
	records map[common.PlayerID]*PlayerRecord
	names   NameIndex
	gms     common.PlayerIDSet
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{
		records: map[common.PlayerID]*PlayerRecord{},
		gms:     common.PlayerIDSet{},
	}
}

// Get returns the record of the player, or nil
func (c *Cache) Get(id common.PlayerID) *PlayerRecord {
	return c.records[id]
}

// GetOrPlaceholder returns the record of the player, creating an uninitialized one if missing
func (c *Cache) GetOrPlaceholder(id common.PlayerID) *PlayerRecord {
	r := c.records[id]
	if r == nil {
		r = NewPlaceholder(id)
		c.records[id] = r
	}
	return r
}

// GetByName looks up a player record by name, ignoring case
func (c *Cache) GetByName(name string) *PlayerRecord {
	id, ok := c.names.Lookup(name)
	if !ok {
		return nil
	}
	return c.records[id]
}

// Apply merges an update into the cached record and maintains the name index and GM set
func (c *Cache) Apply(u *Update) (*PlayerRecord, ApplyResult) {
	r := c.GetOrPlaceholder(u.ID())
	res := r.Apply(u)
	if res.NameChanged {
		c.names.Del(res.OldName, r.ID)
		c.names.Set(r.Name, r.ID)
	}
	if u.Bits.Has(Full) {
		c.updateGM(r)
	}
	return r, res
}

// Put replaces the cached record with a copy of r
func (c *Cache) Put(r *PlayerRecord) *PlayerRecord {
	if old := c.records[r.ID]; old != nil && old.Name != r.Name {
		c.names.Del(old.Name, r.ID)
	}
	cp := r.Copy()
	c.records[r.ID] = cp
	c.names.Set(cp.Name, cp.ID)
	c.updateGM(cp)
	return cp
}

// Remove drops the player from the cache
func (c *Cache) Remove(id common.PlayerID) {
	r := c.records[id]
	if r == nil {
		return
	}
	c.names.Del(r.Name, id)
	c.gms.Del(id)
	delete(c.records, id)
}

func (c *Cache) updateGM(r *PlayerRecord) {
	if r.IsGM() {
		c.gms.Add(r.ID)
	} else {
		c.gms.Del(r.ID)
	}
}

// GMs returns the GM set
func (c *Cache) GMs() common.PlayerIDSet {
	return c.gms
}

// Len returns the number of cached records
func (c *Cache) Len() int {
	return len(c.records)
}

// All returns every cached record ordered by id
func (c *Cache) All() []*PlayerRecord {
	list := make([]*PlayerRecord, 0, len(c.records))
	for _, r := range c.records {
		list = append(list, r)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}
