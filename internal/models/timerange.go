package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// TimeRange identifies the daily slot a dose is due in.
type TimeRange string

const (
	TimeRangeAyuno    TimeRange = "AYUNO"
	TimeRangeDesayuno TimeRange = "DESAYUNO"
	TimeRangeAlmuerzo TimeRange = "ALMUERZO"
	TimeRangeCena     TimeRange = "CENA"
	TimeRangeSOS      TimeRange = "SOS"
)

// Valid returns true when the tag is a supported value.
func (t TimeRange) Valid() bool {
	switch t {
	case TimeRangeAyuno, TimeRangeDesayuno, TimeRangeAlmuerzo, TimeRangeCena, TimeRangeSOS:
		return true
	default:
		return false
	}
}

// TimeRangeSet is the set of slots a medication is scheduled for,
// persisted as a JSONB array.
type TimeRangeSet []TimeRange

// Contains reports membership of a single tag.
func (s TimeRangeSet) Contains(t TimeRange) bool {
	for _, tag := range s {
		if tag == t {
			return true
		}
	}
	return false
}

// Intersects reports whether the two sets share any tag.
func (s TimeRangeSet) Intersects(o TimeRangeSet) bool {
	for _, tag := range o {
		if s.Contains(tag) {
			return true
		}
	}
	return false
}

// Valid returns true when the set is non-empty and every tag is supported.
func (s TimeRangeSet) Valid() bool {
	if len(s) == 0 {
		return false
	}
	for _, tag := range s {
		if !tag.Valid() {
			return false
		}
	}
	return true
}

// Value marshals the set to JSON for persistence.
func (s TimeRangeSet) Value() (driver.Value, error) {
	if s == nil {
		s = TimeRangeSet{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal time range set: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the set.
func (s *TimeRangeSet) Scan(value interface{}) error {
	if value == nil {
		*s = TimeRangeSet{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for TimeRangeSet", value)
	}
	if len(data) == 0 {
		*s = TimeRangeSet{}
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal time range set: %w", err)
	}
	return nil
}

// CombinedWindowParam is the query value selecting the merged
// fasting+breakfast window.
const CombinedWindowParam = "AYUNO_DESAYUNO"

// Window selects the slot the roster is filtered by: either one tag, or the
// fasting and breakfast slots merged into a single window.
type Window struct {
	combined bool
	tag      TimeRange
}

// SingleWindow selects one slot.
func SingleWindow(tag TimeRange) Window {
	return Window{tag: tag}
}

// CombinedWindow selects the merged {AYUNO, DESAYUNO} window.
func CombinedWindow() Window {
	return Window{combined: true}
}

// ParseWindow reads a window selector from its wire form.
func ParseWindow(raw string) (Window, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == CombinedWindowParam {
		return CombinedWindow(), nil
	}
	tag := TimeRange(value)
	if !tag.Valid() {
		return Window{}, fmt.Errorf("unknown time window %q", raw)
	}
	return SingleWindow(tag), nil
}

// Combined reports whether this is the merged fasting+breakfast window.
func (w Window) Combined() bool { return w.combined }

// Set returns the tags this window stands for.
func (w Window) Set() TimeRangeSet {
	if w.combined {
		return TimeRangeSet{TimeRangeAyuno, TimeRangeDesayuno}
	}
	return TimeRangeSet{w.tag}
}

// Matches reports whether an event tagged with t belongs to this window.
func (w Window) Matches(t TimeRange) bool {
	return w.Set().Contains(t)
}

func (w Window) String() string {
	if w.combined {
		return CombinedWindowParam
	}
	return string(w.tag)
}
