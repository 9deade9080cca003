package locate

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/astrogo/fitsio"
)

const (
	cardSize = 80
	// maxTextHeader bounds how much of a text header file is read.
	maxTextHeader = 2880 * 64
)

// Card is one keyword record of a header.
type Card struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Comment string `json:"comment,omitempty"`
}

// Header is an ordered list of cards.
type Header []Card

// Get returns the value of the first card named key (case-insensitive).
func (h Header) Get(key string) (string, bool) {
	for _, c := range h {
		if strings.EqualFold(c.Key, key) {
			return c.Value, true
		}
	}
	return "", false
}

// GetAny returns the value of the first of keys present in h.
func (h Header) GetAny(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := h.Get(k); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// ReadHeader reads the primary header of path. Files in FITS block
// layout are decoded with fitsio; files whose first card ends in a
// newline are read as text headers with ParseHeader.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	first, err := r.Peek(cardSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading header of %q: %w", path, err)
	}

	var h Header
	if bytes.IndexByte(first, '\n') >= 0 {
		data, rerr := io.ReadAll(io.LimitReader(r, maxTextHeader))
		if rerr != nil {
			return nil, fmt.Errorf("reading header of %q: %w", path, rerr)
		}
		h, err = ParseHeader(data)
	} else {
		h, err = decodeFITS(r)
	}
	if err != nil {
		return nil, fmt.Errorf("header of %q: %w", path, err)
	}
	return h, nil
}

func decodeFITS(r io.Reader) (Header, error) {
	f, err := fitsio.Open(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hdr := f.HDU(0).Header()
	var h Header
	for _, key := range hdr.Keys() {
		c := hdr.Get(key)
		if c == nil {
			continue
		}
		h = append(h, Card{Key: c.Name, Value: cardValue(c.Value), Comment: strings.TrimSpace(c.Comment)})
	}
	return h, nil
}

func cardValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimRight(v, " ")
	case bool:
		if v {
			return "T"
		}
		return "F"
	}
	return fmt.Sprint(v)
}

// ParseHeader parses a text header: one card per line, in FITS card
// syntax, terminated by an END line.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	for _, raw := range strings.Split(string(data), "\n") {
		raw = strings.TrimRight(raw, " \r")
		if raw == "" {
			continue
		}
		if strings.TrimSpace(raw) == "END" {
			return h, nil
		}
		if c, ok := parseCard(raw); ok {
			h = append(h, c)
		}
	}
	return nil, fmt.Errorf("no END card")
}

func parseCard(raw string) (Card, bool) {
	key := raw
	if len(key) > 8 {
		key = key[:8]
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Card{}, false
	}
	rest := ""
	if len(raw) > 8 {
		rest = raw[8:]
	}
	switch key {
	case "COMMENT", "HISTORY":
		return Card{Key: key, Value: strings.TrimSpace(rest)}, true
	}
	if !strings.HasPrefix(rest, "=") {
		return Card{Key: key, Value: strings.TrimSpace(rest)}, true
	}
	value, comment := splitValue(strings.TrimSpace(rest[1:]))
	return Card{Key: key, Value: value, Comment: comment}, true
}

// splitValue separates a card value from its trailing comment. Quoted
// strings use '' for an embedded quote and keep significant leading
// blanks only.
func splitValue(s string) (value, comment string) {
	if strings.HasPrefix(s, "'") {
		var sb strings.Builder
		i := 1
		for i < len(s) {
			if s[i] == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					sb.WriteByte('\'')
					i += 2
					continue
				}
				break
			}
			sb.WriteByte(s[i])
			i++
		}
		rest := ""
		if i+1 < len(s) {
			rest = s[i+1:]
		}
		_, comment, _ = strings.Cut(rest, "/")
		return strings.TrimRight(sb.String(), " "), strings.TrimSpace(comment)
	}
	value, comment, _ = strings.Cut(s, "/")
	return strings.TrimSpace(value), strings.TrimSpace(comment)
}
