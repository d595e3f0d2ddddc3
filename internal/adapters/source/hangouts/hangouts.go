// Package hangouts reads the Google Takeout Hangouts export
// (Hangouts/Hangouts.json).
package hangouts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/okian/chatgraph/internal/adapters/source"
	"github.com/okian/chatgraph/internal/domain/credit"
)

// Format is the archive format name.
const Format = "hangouts"

const (
	eventChatMessage = "REGULAR_CHAT_MESSAGE"
	segmentText      = "TEXT"
)

// Reader implements source.Reader for Hangouts exports.
type Reader struct{}

// New returns a Hangouts reader.
func New() Reader { return Reader{} }

// Format implements source.Reader.
func (Reader) Format() string { return Format }

// Read accepts either the Takeout root or the Hangouts.json file itself.
func (Reader) Read(ctx context.Context, root string, emit func(credit.Conversation) error) error {
	path := root
	if info, err := os.Stat(root); err == nil && info.IsDir() {
		path = filepath.Join(root, "Hangouts", "Hangouts.json")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", source.ErrMalformedArchive, err)
	}
	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("%w: %s: invalid JSON", source.ErrMalformedArchive, path)
	}

	convs := gjson.GetBytes(raw, "conversations")
	if !convs.IsArray() {
		return fmt.Errorf("%w: %s: missing conversations array", source.ErrMalformedArchive, path)
	}

	var walkErr error
	convs.ForEach(func(_, c gjson.Result) bool {
		if walkErr = ctx.Err(); walkErr != nil {
			return false
		}
		walkErr = emit(Decode(c))
		return walkErr == nil
	})
	return walkErr
}

// Decode converts one element of the conversations array.
func Decode(c gjson.Result) credit.Conversation {
	byID := map[string]string{}
	var conv credit.Conversation

	c.Get("conversation.conversation.participant_data").ForEach(func(_, p gjson.Result) bool {
		id := p.Get("id.chat_id").String()
		name := p.Get("fallback_name").String()
		if name == "" {
			name = id
		}
		byID[id] = name
		conv.Participants = append(conv.Participants, name)
		return true
	})

	c.Get("events").ForEach(func(_, e gjson.Result) bool {
		if e.Get("event_type").String() != eventChatMessage {
			return true
		}
		segments := e.Get("chat_message.message_content.segment")
		if !segments.Exists() {
			return true
		}

		id := e.Get("sender_id.chat_id").String()
		sender, ok := byID[id]
		if !ok {
			sender = id
		}

		var parts []string
		segments.ForEach(func(_, s gjson.Result) bool {
			if s.Get("type").String() == segmentText {
				parts = append(parts, s.Get("text").String())
			}
			return true
		})

		conv.Messages = append(conv.Messages, credit.Message{
			Sender: sender,
			At:     time.UnixMicro(e.Get("timestamp").Int()),
			Text:   strings.Join(parts, " "),
		})
		return true
	})
	return conv
}
