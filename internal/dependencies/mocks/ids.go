package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/pokersignup/internal/dependencies/ids"
)

// MockIDs is a mock implementation of ids.Generator for testing
type MockIDs struct {
	mu sync.Mutex

	// IDResults is a queue of results to return from NewID
	IDResults []string
	idIndex   int

	counter int
}

// Ensure MockIDs implements Generator
var _ ids.Generator = (*MockIDs)(nil)

// NewMockIDs creates a new MockIDs
func NewMockIDs() *MockIDs {
	return &MockIDs{}
}

// NewID returns the next queued result, or a sequential fallback once the queue is empty
func (g *MockIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idIndex < len(g.IDResults) {
		result := g.IDResults[g.idIndex]
		g.idIndex++
		return result
	}
	g.counter++
	return fmt.Sprintf("id-%d", g.counter)
}

// Token returns a deterministic sequential token
func (g *MockIDs) Token(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%stoken-%d", prefix, g.counter)
}

// QueueID adds values to the NewID result queue
func (g *MockIDs) QueueID(values ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.IDResults = append(g.IDResults, values...)
}

// Reset clears all queued results
func (g *MockIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.IDResults = nil
	g.idIndex = 0
	g.counter = 0
}
