package common

import (
	"sync"
)

// Event is a registry of callbacks for a single client notification point
// (connection established, session changed, and so on). Callbacks run on the
// goroutine that fires the event, in registration order.
type Event struct {
	callbacks []func(data map[string]interface{})
	mutex     sync.Mutex
}

// AddCallback registers a new callback on the event.
func (e *Event) AddCallback(callback func(data map[string]interface{})) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.callbacks = append(e.callbacks, callback)
}

// Fire raises the event and invokes every registered callback.
func (e *Event) Fire(data map[string]interface{}) {
	e.mutex.Lock()
	callbacks := make([]func(data map[string]interface{}), len(e.callbacks))
	copy(callbacks, e.callbacks)
	e.mutex.Unlock()

	for _, callback := range callbacks {
		callback(data)
	}
}

// Len returns the number of registered callbacks.
func (e *Event) Len() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	return len(e.callbacks)
}
