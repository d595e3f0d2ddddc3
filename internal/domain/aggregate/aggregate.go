// Package aggregate folds canonical events into per-person daily totals.
package aggregate

import (
	"fmt"
	"math"

	"github.com/okian/chatgraph/internal/domain/model"
)

// Fold credits every event in events to existing and returns it. A nil
// existing map is allocated. Each creditor of an event receives
// weight/len(creditors) on the event's day, so the fold is commutative and
// repeated calls merge archives.
//
// The whole batch is validated before anything is added: an event without
// creditors or with a negative or non-finite weight fails the call and leaves
// existing untouched.
func Fold(events []model.Event, existing map[string]model.Series) (map[string]model.Series, error) {
	for i, e := range events {
		if err := validate(e); err != nil {
			return existing, fmt.Errorf("event %d: %w", i, err)
		}
	}
	if existing == nil {
		existing = make(map[string]model.Series)
	}
	for _, e := range events {
		share := e.Weight / float64(len(e.Creditors))
		for _, c := range e.Creditors {
			s, ok := existing[c]
			if !ok {
				s = model.Series{}
				existing[c] = s
			}
			s[e.Day] += share
		}
	}
	return existing, nil
}

func validate(e model.Event) error {
	if len(e.Creditors) == 0 {
		return fmt.Errorf("%w: %s", ErrNoCreditors, e)
	}
	if e.Weight < 0 || math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
		return fmt.Errorf("%w: %s", ErrInvalidWeight, e)
	}
	return nil
}

// Aggregator accumulates events from several archives. It is not safe for
// concurrent use; callers merge batches one at a time.
type Aggregator struct {
	series map[string]model.Series
	events int
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{series: make(map[string]model.Series)}
}

// Add folds a batch of events.
func (a *Aggregator) Add(events []model.Event) error {
	if _, err := Fold(events, a.series); err != nil {
		return err
	}
	a.events += len(events)
	return nil
}

// Series hands over the accumulated per-person series.
func (a *Aggregator) Series() map[string]model.Series { return a.series }

// Events returns the number of events folded so far.
func (a *Aggregator) Events() int { return a.events }

// ActiveDays returns the number of (person, day) entries.
func (a *Aggregator) ActiveDays() int {
	n := 0
	for _, s := range a.series {
		n += len(s)
	}
	return n
}
