// Package dedupe tracks recently seen submissions so identical content
// from the same submitter is rejected instead of scored twice.
package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
)

// Deduper records submission fingerprints for at-most-once scoring.
type Deduper interface {
	// SeenAndRecord atomically checks whether key was seen and records
	// it if not. Returns true when key was already present.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets a key so the submission can be retried. Used when
	// a recorded submission later fails to enqueue or score.
	Unrecord(ctx context.Context, key string)

	Size() int
}

// Key fingerprints a submission by challenge, submitter and content. The
// same lines resubmitted by someone else are not a duplicate.
func Key(challenge int64, submitter string, lines []string) string {
	h := sha256.New()
	h.Write([]byte(submitter))
	h.Write([]byte{0})
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(challenge >> (8 * i))
	}
	h.Write(buf[:])
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}

// inMemoryDeduper is a bounded set with FIFO eviction: once capacity is
// reached the oldest fingerprint is forgotten to admit the new one.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]bool
	ring    []string
	next    int
	maxSize int
}

// NewInMemory creates a bounded in-memory deduper.
func NewInMemory(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: 100_000}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]bool, d.maxSize)
	d.ring = make([]string, d.maxSize)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.seen[key] {
		return true
	}
	if old := d.ring[d.next]; old != "" {
		delete(d.seen, old)
	}
	d.ring[d.next] = key
	d.next = (d.next + 1) % d.maxSize
	d.seen[key] = true
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.seen[key] {
		return
	}
	delete(d.seen, key)
	// The ring slot keeps its value; eviction of an already-unrecorded
	// key is a harmless no-op delete.
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
