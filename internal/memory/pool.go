package memory

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// StoreFactory yields the store backing one owner's document.
type StoreFactory func(owner string) Store

// Pool hands out per-owner Memory instances, loading each document
// lazily and caching it for the life of the process. Anonymous callers
// share the DefaultOwner document.
type Pool struct {
	log     *logrus.Logger
	factory StoreFactory

	mu      sync.Mutex
	byOwner map[string]*Memory
}

func NewPool(log *logrus.Logger, factory StoreFactory) *Pool {
	return &Pool{
		log:     log,
		factory: factory,
		byOwner: make(map[string]*Memory),
	}
}

func (p *Pool) Get(ctx context.Context, owner string) *Memory {
	if owner == "" {
		owner = DefaultOwner
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.byOwner[owner]; ok {
		return m
	}
	m := Load(ctx, p.log, p.factory(owner))
	p.byOwner[owner] = m
	return m
}
