package post

import (
	"sync"

	"github.com/xiaonanln/chanworld/engine/gwutils"
)

// PostCallback is the type of functions to be posted
type PostCallback func()

// Queue collects callbacks from other goroutines to be run by the owner's main routine
type Queue struct {
	lock      sync.Mutex
	callbacks []PostCallback
	notify    chan struct{}
}

// NewQueue creates an empty post queue
func NewQueue() *Queue {
	return &Queue{
		notify: make(chan struct{}, 1),
	}
}

// Post a callback which will be executed when other things are done in the main routine
//
// Post might be called from other goroutine, so we use a lock to protect the data
func (q *Queue) Post(f PostCallback) {
	q.lock.Lock()
	q.callbacks = append(q.callbacks, f)
	q.lock.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// C is signaled after callbacks are posted, so main loops can wake up without waiting for the next tick
func (q *Queue) C() <-chan struct{} {
	return q.notify
}

// Tick is called by the main routine to run all posted functions
func (q *Queue) Tick() {
	for { // loop until there is no callbacks posted anymore
		q.lock.Lock()
		if len(q.callbacks) == 0 {
			q.lock.Unlock()
			break
		}
		// switch callbacks in locked section
		callbacksCopy := q.callbacks
		q.callbacks = make([]PostCallback, 0, len(callbacksCopy))
		q.lock.Unlock()

		for _, f := range callbacksCopy {
			gwutils.RunPanicless(f)
		}
	}
}

// Len returns the number of callbacks waiting
func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.callbacks)
}
