package roster

import (
	"sync"

	"github.com/mcoot/pokersignup/internal/model"
)

// gameLocks serializes roster changes per game within this process
type gameLocks struct {
	mu    sync.Mutex
	locks map[model.GameID]*gameLock
}

type gameLock struct {
	mu   sync.Mutex
	refs int
}

func newGameLocks() *gameLocks {
	return &gameLocks{locks: make(map[model.GameID]*gameLock)}
}

// lock blocks until the caller holds the game's lock and returns the release func
func (l *gameLocks) lock(id model.GameID) func() {
	l.mu.Lock()
	gl, ok := l.locks[id]
	if !ok {
		gl = &gameLock{}
		l.locks[id] = gl
	}
	gl.refs++
	l.mu.Unlock()

	gl.mu.Lock()

	return func() {
		gl.mu.Unlock()

		l.mu.Lock()
		gl.refs--
		if gl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
