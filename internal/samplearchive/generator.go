package samplearchive

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/chatgraph/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// placeholder is appended to some threads the way real exports do. It must
// never be credited.
const placeholder = "Say hi to your new Facebook friend!"

// noonOffset places every message at midday UTC so the day survives any
// timezone within twelve hours of UTC.
const noonOffset = 12 * time.Hour

var vocabulary = []string{
	"hey", "lunch", "tomorrow", "sounds", "good", "see", "you", "there",
	"did", "watch", "the", "game", "call", "me", "later", "thanks",
}

type participant struct {
	Name string `json:"name"`
}

type message struct {
	SenderName  string `json:"sender_name"`
	TimestampMS int64  `json:"timestamp_ms"`
	Content     string `json:"content,omitempty"`
}

type thread struct {
	Participants []participant `json:"participants"`
	Messages     []message     `json:"messages"`
}

// Generate writes the archive described by cfg and returns its expected totals.
func Generate(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	log := logger.Get().Named("samplearchive")
	log.Info(ctx, "generating archive",
		logger.String("root", cfg.Root),
		logger.Int("people", cfg.People),
		logger.Int("conversations", cfg.Conversations),
		logger.Int("messages", cfg.Messages),
	)

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible test data
	people := make([]string, cfg.People)
	for i := range people {
		people[i] = fmt.Sprintf("Person %03d", i+1)
	}

	stats := &Stats{Flat: map[string]float64{}, Words: map[string]float64{}}
	inbox := filepath.Join(cfg.Root, "messages", "inbox")
	start := cfg.Start.UTC().Truncate(24 * time.Hour)

	for c := 0; c < cfg.Conversations; c++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		others := pickOthers(rng, people, cfg.GroupShare)
		t := thread{Participants: []participant{{Name: cfg.User}}}
		for _, o := range others {
			t.Participants = append(t.Participants, participant{Name: o})
		}

		for m := 0; m < cfg.Messages; m++ {
			words := 1 + rng.Intn(cfg.MaxWords)
			text := sentence(rng, words)
			at := start.Add(time.Duration(rng.Intn(cfg.Days))*24*time.Hour + noonOffset)

			sender := cfg.User
			if rng.Intn(2) == 0 {
				sender = others[rng.Intn(len(others))]
			}
			t.Messages = append(t.Messages, message{SenderName: sender, TimestampMS: at.UnixMilli(), Content: text})
			credit(stats, cfg.User, sender, others, float64(words))
		}
		if rng.Intn(4) == 0 {
			t.Messages = append(t.Messages, message{
				SenderName:  others[0],
				TimestampMS: start.Add(noonOffset).UnixMilli(),
				Content:     placeholder,
			})
		}

		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, fmt.Errorf("thread id: %w", err)
		}
		if err := writeThread(filepath.Join(inbox, "thread_"+id.String()), t); err != nil {
			return nil, err
		}
		stats.Threads++
		stats.Messages += cfg.Messages
	}

	log.Info(ctx, "archive generated",
		logger.Int("threads", stats.Threads),
		logger.Int("messages", stats.Messages),
		logger.Int("correspondents", len(stats.Flat)),
	)
	return stats, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.Root == "":
		return fmt.Errorf("%w: root is required", ErrInvalidConfig)
	case strings.TrimSpace(cfg.User) == "":
		return fmt.Errorf("%w: user is required", ErrInvalidConfig)
	case cfg.People < 1, cfg.Conversations < 1, cfg.Messages < 1, cfg.MaxWords < 1, cfg.Days < 1:
		return fmt.Errorf("%w: counts must be positive", ErrInvalidConfig)
	case cfg.GroupShare < 0 || cfg.GroupShare > 1:
		return fmt.Errorf("%w: group share must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// pickOthers returns one correspondent, or two or three distinct ones for a
// group thread.
func pickOthers(rng *rand.Rand, people []string, groupShare float64) []string {
	n := 1
	if len(people) > 1 && rng.Float64() < groupShare {
		n = min(2+rng.Intn(2), len(people))
	}
	perm := rng.Perm(len(people))[:n]
	out := make([]string, n)
	for i, p := range perm {
		out[i] = people[p]
	}
	return out
}

func sentence(rng *rand.Rand, words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = vocabulary[rng.Intn(len(vocabulary))]
	}
	return strings.Join(parts, " ")
}

// credit mirrors the crediting rule: a sent message is shared by every other
// participant, a received one belongs to its sender.
func credit(stats *Stats, user, sender string, others []string, words float64) {
	if sender != user {
		stats.Flat[sender]++
		stats.Words[sender] += words
		return
	}
	k := float64(len(others))
	for _, o := range others {
		stats.Flat[o] += 1 / k
		stats.Words[o] += words / k
	}
}

func writeThread(dir string, t thread) error {
	if err := os.MkdirAll(dir, directoryPermission); err != nil {
		return fmt.Errorf("create thread dir: %w", err)
	}
	raw, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encode thread: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "message_1.json"), raw, filePermission); err != nil {
		return fmt.Errorf("write thread: %w", err)
	}
	return nil
}
