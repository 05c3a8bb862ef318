package model

import (
	"fmt"
	"time"
)

// Scene metadata comes from several preprocessing tools that do not agree on
// a datetime format, so acquisition times are parsed leniently.

// StandardTimeLayout is the layout used when formatting acquisition times
const StandardTimeLayout = time.RFC3339

var acquiredTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"20060102T150405",
	"2006-01-02",
}

// ParseAcquiredTime is a drop-in replacement for time.Parse, matching against
// every acquisition time format seen in scene metadata. Times without a zone
// are UTC.
func ParseAcquiredTime(value string) (time.Time, error) {
	for _, layout := range acquiredTimeLayouts {
		if output, err := time.Parse(layout, value); err == nil {
			return output.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("Date could not be parsed by any expected time format: `%s`", value)
}
