// Package ranking reduces per-person dense series to the top N people plus
// one "Other" bucket, with stable labels.
package ranking

import (
	"fmt"
	"sort"

	"github.com/okian/chatgraph/internal/domain/smoothing"
)

// OtherKey is the person key and display name of the remainder bucket.
const OtherKey = "Other"

// Entry is one ranked, labelled series.
type Entry struct {
	Key    string
	Label  string
	Total  float64
	Series []float64
}

// Result is the ranked top entries, in display order, and the Other bucket.
type Result struct {
	Top   []Entry
	Other Entry
}

// Entries returns Top followed by Other.
func (r Result) Entries() []Entry {
	out := make([]Entry, 0, len(r.Top)+1)
	out = append(out, r.Top...)
	return append(out, r.Other)
}

// Options controls ranking.
type Options struct {
	TopN int
	// Anonymize replaces the i-th top entry's name with Names[i].
	Anonymize bool
	Names     []string
	// Days is the length of the Other series when there is nobody to rank.
	Days int
}

// Validate reports configuration errors before any ranking work.
func (o Options) Validate() error {
	if o.TopN <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTopN, o.TopN)
	}
	if o.Anonymize && len(o.Names) < o.TopN {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientNames, o.TopN, len(o.Names))
	}
	return nil
}

// Label formats a display label as name(total), total truncated to an integer.
func Label(name string, total float64) string {
	return fmt.Sprintf("%s(%d)", name, int64(total))
}

// Rank orders people by total descending, ties by key ascending, keeps the
// first TopN and sums the rest element-wise into Other. Every dense series
// must have the same length.
func Rank(byPerson map[string]smoothing.Dense, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	keys := make([]string, 0, len(byPerson))
	length := -1
	for k, d := range byPerson {
		if length >= 0 && len(d.Values) != length {
			return Result{}, fmt.Errorf("%w: %q has %d days, expected %d", ErrMisaligned, k, len(d.Values), length)
		}
		length = len(d.Values)
		keys = append(keys, k)
	}
	if length < 0 {
		length = max(opts.Days, 0)
	}
	sort.Slice(keys, func(i, j int) bool {
		ti, tj := byPerson[keys[i]].Total, byPerson[keys[j]].Total
		if ti != tj {
			return ti > tj
		}
		return keys[i] < keys[j]
	})

	cut := min(opts.TopN, len(keys))
	res := Result{Top: make([]Entry, 0, cut)}
	for i, k := range keys[:cut] {
		d := byPerson[k]
		name := k
		if opts.Anonymize {
			name = opts.Names[i]
		}
		res.Top = append(res.Top, Entry{
			Key:    k,
			Label:  Label(name, d.Total),
			Total:  d.Total,
			Series: append([]float64(nil), d.Values...),
		})
	}

	other := Entry{Key: OtherKey, Series: make([]float64, length)}
	for _, k := range keys[cut:] {
		d := byPerson[k]
		other.Total += d.Total
		for i, v := range d.Values {
			other.Series[i] += v
		}
	}
	other.Label = Label(OtherKey, other.Total)
	res.Other = other
	return res, nil
}
