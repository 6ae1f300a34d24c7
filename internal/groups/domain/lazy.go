package domain

import (
	"context"
	"sync"
)

type loadState int

const (
	notLoaded loadState = iota
	loaded
)

// lazyCode memoizes a group's code. Until the first successful load it holds
// a pending code that setters on a new group write into.
type lazyCode struct {
	mu    sync.Mutex
	state loadState
	value *GroupCode
}

func (l *lazyCode) get(ctx context.Context, groupID ID, loader CodeLoader) (*GroupCode, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == loaded || !groupID.IsPersisted() || loader == nil {
		return l.value, nil
	}

	codes, err := loader.FindByGroupID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(codes) > 0 {
		l.value = codes[0]
	}
	l.state = loaded
	return l.value, nil
}

func (l *lazyCode) set(code *GroupCode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.value = code
	l.state = loaded
}

func (l *lazyCode) peek() (*GroupCode, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.state == loaded
}
