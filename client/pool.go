package client

import (
	"fmt"
	"sync"
)

// Factory builds a started client for a named component (one ECU on the
// vehicle network).
type Factory func(component string) (*Client, error)

// Pool hands out one shared client per component, creating them lazily.
type Pool struct {
	factory Factory

	mu      sync.Mutex
	clients map[string]*Client
}

// NewPool creates an empty pool.
func NewPool(factory Factory) *Pool {
	return &Pool{
		factory: factory,
		clients: make(map[string]*Client),
	}
}

// Get returns the client for a component, creating and starting it on first use.
func (p *Pool) Get(component string) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[component]; ok {
		return c, nil
	}

	c, err := p.factory(component)
	if err != nil {
		return nil, fmt.Errorf("client: creating client for %q: %w", component, err)
	}
	c.Start()
	p.clients[component] = c
	return c, nil
}

// Remove stops and drops the client for a component, if present.
func (p *Pool) Remove(component string) {
	p.mu.Lock()
	c := p.clients[component]
	delete(p.clients, component)
	p.mu.Unlock()

	if c != nil {
		c.Stop()
	}
}

// CloseAll stops every client and empties the pool.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	clients := p.clients
	p.clients = make(map[string]*Client)
	p.mu.Unlock()

	for _, c := range clients {
		c.Stop()
	}
}
