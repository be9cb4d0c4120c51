package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
)

// Rander supplies the uniform tie-break among open paths. Tests inject a
// fixed-seed or stub implementation; production uses a crypto-seeded
// math/rand source.
type Rander interface {
	Intn(n int) int
}

// lockedRand serializes draws from a math/rand source. The engine holds one
// Rander across all worlds while actions are serialized per world, so the
// source itself must tolerate concurrent callers.
type lockedRand struct {
	mu  sync.Mutex
	src *rand.Rand
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// NewRand returns a seeded Rander, falling back to a fixed seed only if the
// system entropy source fails.
func NewRand() Rander {
	seed, err := NewSeed()
	if err != nil {
		seed = 1
	}
	return NewSeededRand(seed)
}

// NewSeededRand returns a Rander with a fixed seed for reproducible play.
func NewSeededRand(seed int64) Rander {
	return &lockedRand{src: rand.New(rand.NewSource(seed))}
}
