package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Layout is a compiled strptime-style pattern such as "%d/%m/%Y %H:%M".
//
// Matching rules:
//   - numeric directives take the longest run of digits (up to their width)
//     whose value is in range; day, month, hour, minute and second also
//     accept a space-padded single digit
//   - a whitespace run in the pattern matches one or more whitespace characters
//   - literals and names match case-insensitively
//   - the whole value must be consumed
type Layout struct {
	pattern string
	tokens  []layoutToken
}

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenSpace
	tokenDirective
)

type layoutToken struct {
	kind tokenKind
	lit  string
	dir  byte
}

type numericRule struct {
	minWidth, maxWidth int
	min, max           int
	// spacePad accepts a single digit preceded by one space, as in " 5".
	spacePad bool
}

var numericDirectives = map[byte]numericRule{
	'd': {1, 2, 1, 31, true},
	'm': {1, 2, 1, 12, true},
	'Y': {4, 4, 0, 9999, false},
	'y': {2, 2, 0, 99, false},
	'H': {1, 2, 0, 23, true},
	'I': {1, 2, 1, 12, true},
	'M': {1, 2, 0, 59, true},
	'S': {1, 2, 0, 61, true},
	'f': {1, 6, 0, 999999, false},
	'j': {1, 3, 1, 366, false},
}

var (
	monthAbbrev = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
	monthFull   = []string{"january", "february", "march", "april", "may", "june", "july", "august", "september", "october", "november", "december"}
	dayAbbrev   = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}
	dayFull     = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	amPm        = []string{"am", "pm"}
)

// CompileLayout parses a strptime-style pattern.
func CompileLayout(pattern string) (*Layout, error) {
	l := &Layout{pattern: pattern}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			l.tokens = append(l.tokens, layoutToken{kind: tokenLiteral, lit: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(pattern); {
		c := pattern[i]
		switch {
		case c == '%':
			if i+1 >= len(pattern) {
				return nil, fmt.Errorf("pattern %q ends with a lone %%", pattern)
			}
			d := pattern[i+1]
			i += 2
			if d == '%' {
				lit.WriteByte('%')
				continue
			}
			if !supportedDirective(d) {
				return nil, fmt.Errorf("unsupported directive %%%c in pattern %q", d, pattern)
			}
			flush()
			l.tokens = append(l.tokens, layoutToken{kind: tokenDirective, dir: d})
		default:
			r, size := utf8.DecodeRuneInString(pattern[i:])
			if unicode.IsSpace(r) {
				flush()
				for i < len(pattern) {
					r, size = utf8.DecodeRuneInString(pattern[i:])
					if !unicode.IsSpace(r) {
						break
					}
					i += size
				}
				l.tokens = append(l.tokens, layoutToken{kind: tokenSpace})
				continue
			}
			lit.WriteString(pattern[i : i+size])
			i += size
		}
	}
	flush()
	return l, nil
}

func supportedDirective(d byte) bool {
	if _, ok := numericDirectives[d]; ok {
		return true
	}
	switch d {
	case 'b', 'B', 'a', 'A', 'p':
		return true
	}
	return false
}

// String returns the source pattern.
func (l *Layout) String() string {
	return l.pattern
}

// wallClock holds the civil fields read from a value, before a timezone is attached.
type wallClock struct {
	year, month, day     int
	hour, minute, second int
	nanosecond           int
}

// Parse reads value into civil time fields. Fields the pattern does not cover
// default to 1900-01-01 00:00:00.
func (l *Layout) Parse(value string) (wallClock, error) {
	found := make(map[byte]int)
	rest := value

	for _, tok := range l.tokens {
		switch tok.kind {
		case tokenLiteral:
			if len(rest) < len(tok.lit) || !strings.EqualFold(rest[:len(tok.lit)], tok.lit) {
				return wallClock{}, fmt.Errorf("expected %q at %q", tok.lit, rest)
			}
			rest = rest[len(tok.lit):]
		case tokenSpace:
			trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
			if len(trimmed) == len(rest) {
				return wallClock{}, fmt.Errorf("expected whitespace at %q", rest)
			}
			rest = trimmed
		case tokenDirective:
			n, remaining, err := readDirective(tok.dir, rest)
			if err != nil {
				return wallClock{}, err
			}
			found[tok.dir] = n
			rest = remaining
		}
	}

	if rest != "" {
		return wallClock{}, fmt.Errorf("unconverted data remains: %q", rest)
	}
	return resolveFields(found)
}

func readDirective(d byte, s string) (int, string, error) {
	if rule, ok := numericDirectives[d]; ok {
		return readNumber(d, rule, s)
	}
	var names []string
	switch d {
	case 'b':
		names = monthAbbrev
	case 'B':
		names = monthFull
	case 'a':
		names = dayAbbrev
	case 'A':
		names = dayFull
	case 'p':
		names = amPm
	}
	for i, name := range names {
		if len(s) >= len(name) && strings.EqualFold(s[:len(name)], name) {
			return i, s[len(name):], nil
		}
	}
	return 0, s, fmt.Errorf("%%%c: no match at %q", d, s)
}

func readNumber(d byte, rule numericRule, s string) (int, string, error) {
	if rule.spacePad && len(s) >= 2 && s[0] == ' ' && isDigit(s[1]) && (len(s) == 2 || !isDigit(s[2])) {
		if n := int(s[1] - '0'); n >= rule.min && n <= rule.max {
			return n, s[2:], nil
		}
	}
	digits := 0
	for digits < len(s) && digits < rule.maxWidth && isDigit(s[digits]) {
		digits++
	}
	for w := digits; w >= rule.minWidth; w-- {
		n, err := strconv.Atoi(s[:w])
		if err != nil {
			continue
		}
		if d == 'f' {
			// fraction digits are right-padded to microseconds
			for i := w; i < 6; i++ {
				n *= 10
			}
			return n, s[w:], nil
		}
		if n >= rule.min && n <= rule.max {
			return n, s[w:], nil
		}
	}
	return 0, s, fmt.Errorf("%%%c: expected %d to %d digits in range %d-%d at %q",
		d, rule.minWidth, rule.maxWidth, rule.min, rule.max, s)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func resolveFields(found map[byte]int) (wallClock, error) {
	w := wallClock{year: 1900, month: 1, day: 1}

	if y, ok := found['Y']; ok {
		w.year = y
	} else if y, ok := found['y']; ok {
		if y <= 68 {
			w.year = 2000 + y
		} else {
			w.year = 1900 + y
		}
	}

	if m, ok := found['m']; ok {
		w.month = m
	} else if m, ok := found['B']; ok {
		w.month = m + 1
	} else if m, ok := found['b']; ok {
		w.month = m + 1
	}
	if d, ok := found['d']; ok {
		w.day = d
	}

	if h, ok := found['H']; ok {
		w.hour = h
	} else if h, ok := found['I']; ok {
		pm := found['p'] == 1
		switch {
		case !pm && h == 12:
			w.hour = 0
		case pm && h != 12:
			w.hour = h + 12
		default:
			w.hour = h
		}
	}
	w.minute = found['M']
	w.second = found['S']
	if w.second > 59 {
		return wallClock{}, errors.New("second must be in 0..59")
	}
	w.nanosecond = found['f'] * 1000

	if j, ok := found['j']; ok {
		date := time.Date(w.year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, j-1)
		if date.Year() != w.year {
			return wallClock{}, fmt.Errorf("day of year %d out of range for %d", j, w.year)
		}
		w.month, w.day = int(date.Month()), date.Day()
	}

	if w.day > daysIn(time.Month(w.month), w.year) {
		return wallClock{}, fmt.Errorf("day %d is out of range for month %d/%d", w.day, w.month, w.year)
	}
	return w, nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
