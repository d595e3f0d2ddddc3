package credit

import (
	"time"

	"github.com/okian/chatgraph/internal/domain/dedupe"
	"github.com/okian/chatgraph/internal/domain/names"
	"github.com/okian/chatgraph/internal/domain/weighting"
)

// Option applies a configuration option to the Splitter.
type Option func(*Splitter)

// WithGroupChats sets whether conversations with more than one other
// participant produce events.
func WithGroupChats(enabled bool) Option {
	return func(s *Splitter) {
		s.groupChats = enabled
	}
}

// WithNormalizer sets the name normalizer.
func WithNormalizer(n *names.Normalizer) Option {
	return func(s *Splitter) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithWeigher sets the per-message weight policy.
func WithWeigher(w weighting.Weigher) Option {
	return func(s *Splitter) {
		if w != nil {
			s.weigher = w
		}
	}
}

// WithDeduper enables duplicate suppression.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Splitter) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithLocation sets the zone instants are truncated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Splitter) {
		if loc != nil {
			s.location = loc
		}
	}
}
