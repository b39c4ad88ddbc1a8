// Package normalize turns raw spreadsheet cell values into comparable text.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Punctuation is the ASCII punctuation set removed by StripPunct.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// SpaceMode selects how whitespace is treated.
type SpaceMode int

const (
	// SpaceTrim removes leading and trailing whitespace only.
	SpaceTrim SpaceMode = iota
	// SpaceStrip removes every whitespace rune.
	SpaceStrip
	// SpaceCollapse trims and folds inner whitespace runs to one space.
	SpaceCollapse
)

// Policy is a normalization recipe. The zero value lower-cases and trims.
type Policy struct {
	Spaces     SpaceMode
	StripPunct bool
}

// Common policies.
var (
	Trimmed   = Policy{Spaces: SpaceTrim}
	Compacted = Policy{Spaces: SpaceStrip}
	Collapsed = Policy{Spaces: SpaceCollapse}
)

// Normalize converts v to text, folds full-width forms, lower-cases it and
// applies the policy. It is idempotent.
func (p Policy) Normalize(v any) string {
	s := Text(v)
	if s == "" {
		return ""
	}
	s = strings.ToLower(width.Fold.String(s))
	if p.StripPunct {
		s = StripPunct(s)
	}
	switch p.Spaces {
	case SpaceStrip:
		s = stripSpaces(s)
	case SpaceCollapse:
		s = strings.Join(strings.Fields(s), " ")
	default:
		s = strings.TrimSpace(s)
	}
	return s
}

// Text renders a scalar cell value as a string. nil and NaN render empty;
// integral floats render without a fractional part.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return formatFloat(x, 64)
	case float32:
		return formatFloat(float64(x), 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// IsBlank reports whether v is nil, NaN or whitespace-only text.
func IsBlank(v any) bool {
	return strings.TrimSpace(Text(v)) == ""
}

// StripPunct removes ASCII punctuation runes.
func StripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && strings.ContainsRune(Punctuation, r) {
			return -1
		}
		return r
	}, s)
}

// ContainsWord reports whether word occurs in s with no letter, digit or
// underscore touching either end. Word characters are Unicode-aware, so a
// CJK term embedded in longer CJK text does not match.
func ContainsWord(s, word string) bool {
	for from := 0; from <= len(s)-len(word); {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)
		if !wordBefore(s, start, word) && !wordAfter(s, end, word) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		from = start + size
	}
	return false
}

// wordBefore reports whether a word character touches the match start. A
// match that itself starts with a non-word rune needs no boundary there.
func wordBefore(s string, start int, word string) bool {
	if start == 0 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(word)
	prev, _ := utf8.DecodeLastRuneInString(s[:start])
	return isWordRune(first) && isWordRune(prev)
}

func wordAfter(s string, end int, word string) bool {
	if end >= len(s) {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(word)
	next, _ := utf8.DecodeRuneInString(s[end:])
	return isWordRune(last) && isWordRune(next)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func formatFloat(f float64, bits int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}
