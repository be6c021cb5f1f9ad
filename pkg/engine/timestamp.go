package engine

import (
	"strings"
	"time"

	// Embedded IANA database so conversions do not depend on the host's zoneinfo.
	_ "time/tzdata"

	"github.com/MadKrok/essais-python/pkg/parser"
	"github.com/MadKrok/essais-python/pkg/schema"
)

// OutputLayout renders every output timestamp as full UTC ISO-8601 with a
// literal Z suffix.
const OutputLayout = "2006-01-02T15:04:05Z"

// DefaultDuration is the intervention length assumed when the log has no end time.
const DefaultDuration = 30 * time.Minute

// transitionProbe bounds the window searched for a UTC offset change around a
// local wall time. No zone changes offset twice within it.
const transitionProbe = 48 * time.Hour

// TimestampNormalizer converts local log timestamps into UTC.
type TimestampNormalizer struct {
	location *time.Location
	layout   *Layout
}

// NewTimestampNormalizer compiles the field map's datetime format for its timezone.
func NewTimestampNormalizer(fm *schema.FieldMap) (*TimestampNormalizer, error) {
	layout, err := CompileLayout(fm.DateTimeFormat)
	if err != nil {
		return nil, &schema.ConfigError{Key: schema.KeyDateTimeFormat, Err: err}
	}
	return &TimestampNormalizer{location: fm.Location, layout: layout}, nil
}

// Assemble concatenates each part's row value followed by its separator, in
// order. The last separator is kept.
func (n *TimestampNormalizer) Assemble(row parser.Row, parts []schema.ColumnPart) (string, error) {
	var b strings.Builder
	for _, p := range parts {
		v, err := schema.Value(row, p.Column)
		if err != nil {
			return "", err
		}
		b.WriteString(v)
		b.WriteString(p.Separator)
	}
	return b.String(), nil
}

// ToUTC parses a local timestamp and returns the instant in UTC.
func (n *TimestampNormalizer) ToUTC(local string) (time.Time, error) {
	wall, err := n.layout.Parse(local)
	if err != nil {
		return time.Time{}, &schema.TimestampParseError{
			Value:  local,
			Format: n.layout.String(),
			Reason: err.Error(),
		}
	}
	return localize(wall, n.location).UTC(), nil
}

// DefaultEnd returns start plus DefaultDuration in absolute time.
func (n *TimestampNormalizer) DefaultEnd(start time.Time) time.Time {
	return start.Add(DefaultDuration)
}

// Format renders t with OutputLayout in UTC.
func (n *TimestampNormalizer) Format(t time.Time) string {
	return t.UTC().Format(OutputLayout)
}

// localize attaches loc to civil time fields.
//
// Wall times repeated by a backward transition resolve to the standard-time
// (non-DST) offset. Wall times skipped by a forward transition are read with
// the standard-time offset, so 02:30 in a 02:00->03:00 gap becomes 03:30 DST.
func localize(w wallClock, loc *time.Location) time.Time {
	naive := time.Date(w.year, time.Month(w.month), w.day, w.hour, w.minute, w.second, w.nanosecond, time.UTC)

	before := naive.Add(-transitionProbe).In(loc)
	after := naive.Add(transitionProbe).In(loc)
	_, offBefore := before.Zone()
	_, offAfter := after.Zone()

	if offBefore == offAfter {
		return instantAt(naive, offBefore).In(loc)
	}

	var valid []time.Time
	for _, off := range []int{offBefore, offAfter} {
		t := instantAt(naive, off).In(loc)
		if _, got := t.Zone(); got == off {
			valid = append(valid, t)
		}
	}

	switch len(valid) {
	case 1:
		return valid[0]
	case 2:
		for _, t := range valid {
			if !t.IsDST() {
				return t
			}
		}
		return valid[0]
	}

	std := offBefore
	if before.IsDST() && !after.IsDST() {
		std = offAfter
	}
	return instantAt(naive, std).In(loc)
}

func instantAt(naive time.Time, offset int) time.Time {
	return naive.Add(-time.Duration(offset) * time.Second)
}
