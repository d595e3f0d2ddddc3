// Package samplearchive writes synthetic Facebook-format message exports with
// known per-person totals, for demos and end-to-end checks of the pipeline.
package samplearchive

import "time"

// Config controls a generated archive.
type Config struct {
	Root          string    // Export root; messages/inbox is created below it
	User          string    // Archive owner
	People        int       // Number of distinct correspondents
	Conversations int       // Number of threads
	Messages      int       // Messages per thread
	GroupShare    float64   // Fraction of threads with two or three others
	MaxWords      int       // Upper bound of words per message
	Start         time.Time // First day messages may fall on
	Days          int       // Number of days messages are spread over
	Seed          int64     // Same seed, same archive
}

// Stats describes what was written and the totals a correct pipeline run
// must reproduce over [Start, Start+Days).
type Stats struct {
	Threads  int
	Messages int
	// Flat and Words map each correspondent to the expected total under flat
	// and word-count weighting, with group chats enabled.
	Flat  map[string]float64
	Words map[string]float64
}
