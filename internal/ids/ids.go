// Package ids generates entity identifiers. Each store owns its own
// Generator so identifiers from different collections never share a
// sequence.
package ids

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type Generator interface {
	NewID() string
}

// UUID generates random version 4 UUIDs.
type UUID struct{}

func (UUID) NewID() string {
	return uuid.NewString()
}

// Sequence generates monotonic identifiers of the form "<prefix>-<n>",
// starting at 1.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	next   int64
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix, next: 1}
}

func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("%s-%d", s.prefix, s.next)
	s.next++
	return id
}
