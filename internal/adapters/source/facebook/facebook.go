// Package facebook reads Facebook "Download your information" message exports.
//
// Layout: <root>/messages/inbox/<thread>/*.json, one conversation per file.
package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/okian/chatgraph/internal/adapters/source"
	"github.com/okian/chatgraph/internal/domain/credit"
)

// Format is the archive format name.
const Format = "facebook"

type thread struct {
	Participants []struct {
		Name string `json:"name"`
	} `json:"participants"`
	Messages []struct {
		SenderName  string  `json:"sender_name"`
		TimestampMS int64   `json:"timestamp_ms"`
		Content     *string `json:"content"`
	} `json:"messages"`
}

// Reader implements source.Reader for Facebook exports.
type Reader struct{}

// New returns a Facebook reader.
func New() Reader { return Reader{} }

// Format implements source.Reader.
func (Reader) Format() string { return Format }

// Read implements source.Reader.
func (Reader) Read(ctx context.Context, root string, emit func(credit.Conversation) error) error {
	inbox := filepath.Join(root, "messages", "inbox")
	threads, err := os.ReadDir(inbox)
	if err != nil {
		return fmt.Errorf("%w: inbox: %w", source.ErrMalformedArchive, err)
	}

	for _, t := range threads {
		if !t.IsDir() {
			continue
		}
		files, err := filepath.Glob(filepath.Join(inbox, t.Name(), "*.json"))
		if err != nil {
			return fmt.Errorf("%w: %w", source.ErrMalformedArchive, err)
		}
		sort.Strings(files)
		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			conv, err := readThread(path)
			if err != nil {
				return err
			}
			if err := emit(conv); err != nil {
				return err
			}
		}
	}
	return nil
}

func readThread(path string) (credit.Conversation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return credit.Conversation{}, fmt.Errorf("read %s: %w", path, err)
	}
	var t thread
	if err := json.Unmarshal(raw, &t); err != nil {
		return credit.Conversation{}, fmt.Errorf("%w: %s: %w", source.ErrMalformedArchive, path, err)
	}

	conv := credit.Conversation{
		Participants: make([]string, 0, len(t.Participants)),
		Messages:     make([]credit.Message, 0, len(t.Messages)),
	}
	for _, p := range t.Participants {
		conv.Participants = append(conv.Participants, p.Name)
	}
	for _, m := range t.Messages {
		var text string
		if m.Content != nil {
			text = strings.TrimSpace(*m.Content)
		}
		conv.Messages = append(conv.Messages, credit.Message{
			Sender: m.SenderName,
			At:     time.UnixMilli(m.TimestampMS),
			Text:   text,
		})
	}
	return conv, nil
}
