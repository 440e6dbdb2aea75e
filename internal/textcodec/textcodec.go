// Package textcodec is the reversible encoding applied to free-text problem
// fields at rest: standard padded base64 over the UTF-8 bytes of the text.
package textcodec

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/cristalhq/base64"
)

// ErrNotUTF8 is returned when a stored value decodes to bytes that are not UTF-8 text.
var ErrNotUTF8 = errors.New("textcodec: decoded value is not valid UTF-8")

// Encode returns the stored form of s.
func Encode(s string) string {
	if s == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// Decode reverses Encode. ASCII whitespace inside the stored value is ignored,
// as browsers do when decoding base64.
func Decode(stored string) (string, error) {
	if stored == "" {
		return "", nil
	}
	if strings.ContainsAny(stored, " \t\r\n\f") {
		stored = strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\t', '\r', '\n', '\f':
				return -1
			}
			return r
		}, stored)
	}
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", ErrNotUTF8
	}
	return string(raw), nil
}

// DecodeOrRaw decodes stored, returning it unchanged when it is not a valid encoding.
func DecodeOrRaw(stored string) string {
	s, err := Decode(stored)
	if err != nil {
		return stored
	}
	return s
}
