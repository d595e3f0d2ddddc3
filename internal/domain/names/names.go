// Package names maps raw display names to canonical person keys and supplies
// replacement names for anonymized output.
package names

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalizer maps raw display names to canonical person keys. The zero value
// is usable and only canonicalizes Unicode and surrounding whitespace.
type Normalizer struct {
	table map[string]string
}

// NewNormalizer builds a Normalizer from a raw name -> canonical key table.
// Keys and values are NFC-normalized so visually identical names match.
func NewNormalizer(table map[string]string) *Normalizer {
	n := &Normalizer{table: make(map[string]string, len(table))}
	for raw, canonical := range table {
		n.table[clean(raw)] = clean(canonical)
	}
	return n
}

// Normalize returns the canonical key for name.
func (n *Normalizer) Normalize(name string) string {
	c := clean(name)
	if n == nil {
		return c
	}
	if mapped, ok := n.table[c]; ok {
		return mapped
	}
	return c
}

// Len returns the number of table entries.
func (n *Normalizer) Len() int {
	if n == nil {
		return 0
	}
	return len(n.table)
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ReadTable decodes a JSON object of raw name -> canonical key.
func ReadTable(r io.Reader) (map[string]string, error) {
	table := map[string]string{}
	if err := json.NewDecoder(r).Decode(&table); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadTable, err)
	}
	return table, nil
}

// LoadNormalizer reads a normalization table from path. An empty path yields a
// Normalizer with an empty table.
func LoadNormalizer(path string) (*Normalizer, error) {
	if path == "" {
		return NewNormalizer(nil), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open name table: %w", err)
	}
	defer func() { _ = f.Close() }()

	table, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewNormalizer(table), nil
}

// ReadList reads one name per line, trimming whitespace and skipping blank
// lines. Order is preserved.
func ReadList(r io.Reader) ([]string, error) {
	var list []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			list = append(list, name)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read name list: %w", err)
	}
	return list, nil
}

// LoadList reads a name list from path.
func LoadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open name list: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadList(f)
}
