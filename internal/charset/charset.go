// Package charset maps P4CHARSET names to the numeric code announced to
// the server and to an x/text encoding for local display.
package charset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

var ErrUnknownCharset = errors.New("charset: unknown charset")

// Charset is a client character set.
type Charset struct {
	Name string
	Code int
	// Encoding is nil for charsets that need no transcoding.
	Encoding encoding.Encoding
}

var UTF8 = Charset{Name: "utf8", Code: 1}

var table = []Charset{
	{Name: "none", Code: 0},
	UTF8,
	{Name: "iso8859-1", Code: 2, Encoding: charmap.ISO8859_1},
	{Name: "shiftjis", Code: 4, Encoding: japanese.ShiftJIS},
	{Name: "eucjp", Code: 5, Encoding: japanese.EUCJP},
	{Name: "winansi", Code: 6, Encoding: charmap.Windows1252},
	{Name: "winoem", Code: 7, Encoding: charmap.CodePage437},
	{Name: "macosroman", Code: 8, Encoding: charmap.Macintosh},
	{Name: "iso8859-15", Code: 9, Encoding: charmap.ISO8859_15},
	{Name: "iso8859-5", Code: 10, Encoding: charmap.ISO8859_5},
	{Name: "koi8-r", Code: 11, Encoding: charmap.KOI8R},
	{Name: "cp1251", Code: 12, Encoding: charmap.Windows1251},
}

var aliases = map[string]string{
	"":       "utf8",
	"utf-8":  "utf8",
	"cp1252": "winansi",
	"cp437":  "winoem",
	"latin1": "iso8859-1",
}

// Lookup resolves a P4CHARSET value. An empty name means utf8.
func Lookup(name string) (Charset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	for _, cs := range table {
		if cs.Name == key {
			return cs, nil
		}
	}
	return Charset{}, fmt.Errorf("%w: %q", ErrUnknownCharset, name)
}

// Names lists the supported charset names in code order.
func Names() []string {
	out := make([]string, 0, len(table))
	for _, cs := range table {
		out = append(out, cs.Name)
	}
	return out
}

// Param is the value of the "charset" message parameter.
func (c Charset) Param() string {
	return strconv.Itoa(c.Code)
}

// Decode converts bytes received in this charset to UTF-8.
func (c Charset) Decode(b []byte) (string, error) {
	if c.Encoding == nil {
		return string(b), nil
	}
	out, err := c.Encoding.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("charset: decode %s: %w", c.Name, err)
	}
	return string(out), nil
}

// Encode converts UTF-8 text to this charset. Runes the charset cannot
// represent are an error.
func (c Charset) Encode(s string) ([]byte, error) {
	if c.Encoding == nil {
		return []byte(s), nil
	}
	out, err := c.Encoding.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("charset: encode %s: %w", c.Name, err)
	}
	return out, nil
}
