// Package adium reads Adium XML chat transcripts (*.xml, Unified Logging
// Format). Every file is one conversation; the chat's account attribute is the
// local identity for that log.
package adium

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/chatgraph/internal/adapters/source"
	"github.com/okian/chatgraph/internal/domain/credit"
)

// Format is the archive format name.
const Format = "adium"

// Namespace is the Adium log namespace. Elements are matched by local name.
const Namespace = "http://purl.org/net/ulf/ns/0.4-02"

// Reader implements source.Reader for Adium logs.
type Reader struct{}

// New returns an Adium reader.
func New() Reader { return Reader{} }

// Format implements source.Reader.
func (Reader) Format() string { return Format }

// Read walks root for .xml transcripts in lexical order.
func (Reader) Read(ctx context.Context, root string, emit func(credit.Conversation) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %w", source.ErrMalformedArchive, err)
	}
	if !info.IsDir() {
		return readFile(root, emit)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".xml") {
			return nil
		}
		return readFile(path, emit)
	})
}

func readFile(path string, emit func(credit.Conversation) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	conv, err := Decode(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", source.ErrMalformedArchive, path, err)
	}
	return emit(conv)
}

// Decode parses one transcript.
func Decode(r io.Reader) (credit.Conversation, error) {
	var (
		conv    credit.Conversation
		current *credit.Message
		text    strings.Builder
		depth   int
		sawChat bool
	)
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return credit.Conversation{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if current != nil {
				depth++
				continue
			}
			switch t.Name.Local {
			case "chat":
				sawChat = true
				conv.Self = attr(t, "account")
			case "message":
				at, err := time.Parse(time.RFC3339, attr(t, "time"))
				if err != nil {
					return credit.Conversation{}, fmt.Errorf("message time: %w", err)
				}
				current = &credit.Message{Sender: attr(t, "sender"), At: at}
				text.Reset()
				depth = 0
			}
		case xml.CharData:
			if current != nil {
				text.Write(t)
			}
		case xml.EndElement:
			if current == nil {
				continue
			}
			if depth > 0 {
				depth--
				continue
			}
			current.Text = strings.TrimSpace(text.String())
			conv.Messages = append(conv.Messages, *current)
			current = nil
		}
	}
	if !sawChat {
		return credit.Conversation{}, errors.New("missing chat element")
	}
	return conv, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
