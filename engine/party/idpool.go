package party

import (
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/consts"
)

// IDPool allocates party ids, reusing released ids lowest first
type IDPool struct {
	next  common.PartyID
	freed []common.PartyID
	inUse map[common.PartyID]struct{}
}

// NewIDPool creates an id pool starting at PARTY_ID_START
func NewIDPool() *IDPool {
	return &IDPool{
		next:  consts.PARTY_ID_START,
		inUse: map[common.PartyID]struct{}{},
	}
}

// Acquire returns an unused party id
func (pool *IDPool) Acquire() common.PartyID {
	var id common.PartyID
	if n := len(pool.freed); n > 0 {
		minIdx := 0
		for i := 1; i < n; i++ {
			if pool.freed[i] < pool.freed[minIdx] {
				minIdx = i
			}
		}
		id = pool.freed[minIdx]
		pool.freed[minIdx] = pool.freed[n-1]
		pool.freed = pool.freed[:n-1]
	} else {
		id = pool.next
		pool.next++
	}
	pool.inUse[id] = struct{}{}
	return id
}

// Release returns an id to the pool
func (pool *IDPool) Release(id common.PartyID) {
	if _, ok := pool.inUse[id]; !ok {
		return
	}
	delete(pool.inUse, id)
	pool.freed = append(pool.freed, id)
}
