package utils

import (
	"container/list"
	"errors"
	"sync"
	"time"
)

// ErrDequeTimeout is returned by Get when nothing arrives in time.
var ErrDequeTimeout = errors.New("utils: timed out waiting for item")

// Deque is a blocking FIFO used to hand responses from the receive pump to
// the goroutine waiting on a request.
type Deque struct {
	sync.RWMutex
	notEmptyNotify chan struct{}
	container      *list.List
}

func NewDeque() *Deque {
	return &Deque{container: list.New(), notEmptyNotify: make(chan struct{})}
}

// Put appends an item and wakes one waiting Get.
func (s *Deque) Put(item interface{}) {
	s.Lock()
	s.container.PushFront(item)
	s.Unlock()
	select {
	case s.notEmptyNotify <- struct{}{}:
	default:
	}
}

// Get removes the oldest item, blocking up to timeout for one to arrive.
func (s *Deque) Get(timeout time.Duration) (interface{}, error) {
	endTime := time.Now().Add(timeout)
	s.Lock()
	for {
		if back := s.container.Back(); back != nil {
			item := s.container.Remove(back)
			s.Unlock()
			return item, nil
		}
		remaining := time.Until(endTime)
		s.Unlock()
		if remaining <= 0 {
			return nil, ErrDequeTimeout
		}
		select {
		case <-s.notEmptyNotify:
		case <-time.After(remaining):
			return nil, ErrDequeTimeout
		}
		s.Lock()
	}
}

// Len returns the number of queued items.
func (s *Deque) Len() int {
	s.RLock()
	defer s.RUnlock()
	return s.container.Len()
}
