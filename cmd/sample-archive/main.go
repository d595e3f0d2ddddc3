package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/chatgraph/internal/samplearchive"
	"github.com/okian/chatgraph/pkg/logger"
)

// Default generation constants.
const (
	defaultPeople        = 40
	defaultConversations = 120
	defaultMessages      = 200
	defaultGroupShare    = 0.2
	defaultMaxWords      = 12
	defaultDays          = 5 * 365
	defaultTimeout       = 5 * time.Minute
)

func main() {
	var (
		root          = flag.String("out", "sample-export", "Export root directory")
		user          = flag.String("user", "Sample User", "Archive owner")
		people        = flag.Int("people", defaultPeople, "Number of correspondents")
		conversations = flag.Int("conversations", defaultConversations, "Number of threads")
		messages      = flag.Int("messages", defaultMessages, "Messages per thread")
		groupShare    = flag.Float64("group-share", defaultGroupShare, "Fraction of group threads")
		maxWords      = flag.Int("max-words", defaultMaxWords, "Maximum words per message")
		start         = flag.String("start", "2015-01-01", "First day, YYYY-MM-DD")
		days          = flag.Int("days", defaultDays, "Number of days to spread messages over")
		seed          = flag.Int64("seed", 1, "Random seed")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	first, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		os.Stderr.WriteString("invalid start: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	stats, err := samplearchive.Generate(ctx, &samplearchive.Config{
		Root:          *root,
		User:          *user,
		People:        *people,
		Conversations: *conversations,
		Messages:      *messages,
		GroupShare:    *groupShare,
		MaxWords:      *maxWords,
		Start:         first,
		Days:          *days,
		Seed:          *seed,
	})
	if err != nil {
		os.Stderr.WriteString("generation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Get().Info(ctx, "run chatgraph with",
		logger.String("user", *user),
		logger.String("archive", "facebook:"+*root),
		logger.Int("threads", stats.Threads),
	)
}
