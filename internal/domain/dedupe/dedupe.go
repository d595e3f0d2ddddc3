// Package dedupe suppresses messages that appear more than once across
// overlapping archives.
package dedupe

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// namespace scopes message fingerprints so they never collide with other
// SHA1 UUIDs.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("chatgraph:message"))

// Deduper records message fingerprints to ensure each message is credited once.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool
	Size() int64
}

// Fingerprint derives a stable id for a message from the sender, the instant
// and the text. Conversation identity is deliberately absent so the same
// message found in two exports collapses to one id.
func Fingerprint(sender string, at time.Time, text string) string {
	buf := make([]byte, 0, len(sender)+len(text)+24)
	buf = append(buf, sender...)
	buf = append(buf, 0)
	buf = strconv.AppendInt(buf, at.UnixNano(), 10)
	buf = append(buf, 0)
	buf = append(buf, text...)
	return uuid.NewSHA1(namespace, buf).String()
}

// inMemoryDeduper keeps fingerprints in a map. With maxSize > 0 the oldest
// fingerprint is evicted once the set is full.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order, used as a ring when bounded
	next    int
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.order = make([]string, 0, d.maxSize)
	}
	return d
}

// SeenAndRecord implements Deduper.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 {
		if len(d.order) < d.maxSize {
			d.order = append(d.order, id)
		} else {
			delete(d.seen, d.order[d.next])
			d.order[d.next] = id
			d.next = (d.next + 1) % d.maxSize
		}
	}
	d.seen[id] = struct{}{}
	return false
}

// Size returns the current number of recorded fingerprints.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}

// Nop never reports duplicates.
type Nop struct{}

// SeenAndRecord implements Deduper.
func (Nop) SeenAndRecord(context.Context, string) bool { return false }

// Size implements Deduper.
func (Nop) Size() int64 { return 0 }
