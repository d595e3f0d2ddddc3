// Package source turns chat-export archives into canonical events.
//
// Each archive format is a Reader that only extracts conversations:
// participants, senders, instants and text. Crediting is shared and lives in
// credit.Splitter, applied uniformly by Load.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/okian/chatgraph/internal/domain/credit"
	"github.com/okian/chatgraph/internal/domain/model"
)

// Reader extracts conversations from one archive format.
type Reader interface {
	// Format is the name used in format:path arguments.
	Format() string
	// Read calls emit once per conversation found under path. Returning an
	// error from emit stops the walk.
	Read(ctx context.Context, path string, emit func(credit.Conversation) error) error
}

// Spec names one archive on the command line.
type Spec struct {
	Format string
	Path   string
}

func (s Spec) String() string { return s.Format + ":" + s.Path }

// ParseSpec parses "format:path". A leading "~" in path expands to the home
// directory. Only the first colon separates format from path.
func ParseSpec(arg string) (Spec, error) {
	format, path, ok := strings.Cut(arg, ":")
	format = strings.ToLower(strings.TrimSpace(format))
	if !ok || format == "" || path == "" {
		return Spec{}, fmt.Errorf("%w: expected format:path, got %q", ErrBadSpec, arg)
	}
	expanded, err := expandHome(path)
	if err != nil {
		return Spec{}, err
	}
	return Spec{Format: format, Path: expanded}, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Registry maps format names to readers.
type Registry struct {
	readers map[string]Reader
}

// NewRegistry builds a registry of readers keyed by their Format.
func NewRegistry(readers ...Reader) *Registry {
	r := &Registry{readers: make(map[string]Reader, len(readers))}
	for _, rd := range readers {
		r.readers[rd.Format()] = rd
	}
	return r
}

// Lookup returns the reader for format.
func (r *Registry) Lookup(format string) (Reader, error) {
	rd, ok := r.readers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownFormat, format, strings.Join(r.Formats(), ", "))
	}
	return rd, nil
}

// Formats lists the registered format names in order.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.readers))
	for f := range r.readers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Stats summarizes one archive load.
type Stats struct {
	Conversations int
	Credited      int
	Skipped       map[string]int
	Messages      int
	Events        int
	Duplicates    int
	Unattributed  int
}

// Load reads the archive at path with rd and credits its conversations with s.
func Load(ctx context.Context, rd Reader, path string, s *credit.Splitter) ([]model.Event, Stats, error) {
	stats := Stats{Skipped: map[string]int{}}
	var events []model.Event

	err := rd.Read(ctx, path, func(conv credit.Conversation) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Conversations++
		stats.Messages += len(conv.Messages)

		res := s.Split(ctx, conv)
		stats.Duplicates += res.Duplicates
		stats.Unattributed += res.Unattributed
		if res.SkipReason != credit.SkipNone {
			stats.Skipped[res.SkipReason]++
			return nil
		}
		stats.Credited++
		stats.Events += len(res.Events)
		events = append(events, res.Events...)
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("%s:%s: %w", rd.Format(), path, err)
	}
	return events, stats, nil
}
