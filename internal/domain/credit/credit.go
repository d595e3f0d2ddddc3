// Package credit turns one raw conversation into canonical events. Every
// source adapter goes through the same Splitter so the crediting rules live in
// one place: a message sent by the user is credited to every other
// participant, a received message is credited to its sender.
package credit

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/okian/chatgraph/internal/domain/dedupe"
	"github.com/okian/chatgraph/internal/domain/model"
	"github.com/okian/chatgraph/internal/domain/names"
	"github.com/okian/chatgraph/internal/domain/weighting"
)

// PlaceholderPrefix starts the greeting some exports append as the final
// message of a conversation. Such a message is not real activity.
const PlaceholderPrefix = "Say hi to your"

// Skip reasons reported by Split.
const (
	SkipNone         = ""
	SkipNoOthers     = "no_other_participants"
	SkipGroupChat    = "group_chat_disabled"
	SkipNoMessages   = "no_messages"
	SkipAllDuplicate = "all_duplicates"
	SkipNoSenders    = "no_attributed_messages"
)

// Message is the minimal shape a source extracts from one raw message.
type Message struct {
	Sender string
	At     time.Time
	Text   string
}

// Conversation is the minimal shape a source extracts from one raw
// conversation.
type Conversation struct {
	// Self overrides the configured user for this conversation, e.g. the
	// account a chat log was recorded under. Empty means the configured user.
	Self string
	// Participants lists display names including the user. When empty, the
	// participant set is derived from message senders.
	Participants []string
	// Messages in export order. Only the last one is checked against the
	// placeholder prefix.
	Messages []Message
}

// Result is the outcome of splitting one conversation.
type Result struct {
	Events     []model.Event
	Others     []string
	SkipReason string
	Duplicates int
	// Unattributed counts messages dropped because their sender is empty.
	Unattributed int
}

// Splitter applies the crediting rules. It is safe for concurrent use when its
// Deduper is.
type Splitter struct {
	user       string
	groupChats bool
	normalizer *names.Normalizer
	weigher    weighting.Weigher
	deduper    dedupe.Deduper
	location   *time.Location
}

// NewSplitter creates a Splitter for the configured user.
func NewSplitter(user string, opts ...Option) *Splitter {
	s := &Splitter{
		groupChats: true,
		normalizer: names.NewNormalizer(nil),
		weigher:    weighting.WordCount{},
		deduper:    dedupe.Nop{},
		location:   time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.user = s.normalizer.Normalize(user)
	return s
}

// User returns the canonical key of the configured user.
func (s *Splitter) User() string { return s.user }

// Location returns the zone used to map instants to days.
func (s *Splitter) Location() *time.Location { return s.location }

// Split produces the events for conv.
func (s *Splitter) Split(ctx context.Context, conv Conversation) Result {
	self := s.user
	if conv.Self != "" {
		self = s.normalizer.Normalize(conv.Self)
	}

	msgs := conv.Messages
	if n := len(msgs); n > 0 && strings.HasPrefix(msgs[n-1].Text, PlaceholderPrefix) {
		msgs = msgs[:n-1]
	}

	others := s.others(self, conv.Participants, msgs)
	if len(others) == 0 {
		return Result{SkipReason: SkipNoOthers}
	}
	if len(others) > 1 && !s.groupChats {
		return Result{Others: others, SkipReason: SkipGroupChat}
	}
	if len(msgs) == 0 {
		return Result{Others: others, SkipReason: SkipNoMessages}
	}

	res := Result{Others: others, Events: make([]model.Event, 0, len(msgs))}
	for _, m := range msgs {
		sender := s.normalizer.Normalize(m.Sender)
		if sender == "" {
			res.Unattributed++
			continue
		}
		if s.deduper.SeenAndRecord(ctx, dedupe.Fingerprint(sender, m.At, m.Text)) {
			res.Duplicates++
			continue
		}
		creditors := []string{sender}
		if sender == self {
			// Each event owns its creditors.
			creditors = append([]string(nil), others...)
		}
		res.Events = append(res.Events, model.Event{
			Day:       model.DayOf(m.At, s.location),
			Creditors: creditors,
			Weight:    s.weigher.Weight(m.Text),
		})
	}
	if len(res.Events) == 0 {
		res.SkipReason = SkipAllDuplicate
		if res.Duplicates == 0 {
			res.SkipReason = SkipNoSenders
		}
	}
	return res
}

// others returns the sorted, de-duplicated non-self participants.
func (s *Splitter) others(self string, participants []string, msgs []Message) []string {
	set := map[string]struct{}{}
	if len(participants) > 0 {
		for _, p := range participants {
			set[s.normalizer.Normalize(p)] = struct{}{}
		}
	} else {
		for _, m := range msgs {
			set[s.normalizer.Normalize(m.Sender)] = struct{}{}
		}
	}
	delete(set, self)
	delete(set, "")

	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
