package convert

import "time"

// Layouts accepted by ParseTimestamp, keyed by input length.
var timestampLayouts = map[int]string{
	4:  "2006",
	7:  "2006-01",
	10: "2006-01-02",
	13: "2006-01-02T15",
	16: "2006-01-02T15:04",
	19: "2006-01-02T15:04:05",
}

// ParseTimestamp parses a fixed-width, possibly partial, timestamp as UTC,
// truncated to whole seconds. Returns nil on any other input.
func ParseTimestamp(raw string) any {
	layout, ok := timestampLayouts[len(raw)]
	if !ok {
		return nil
	}
	t, err := time.ParseInLocation(layout, raw, time.UTC)
	if err != nil {
		return nil
	}
	return t.Truncate(time.Second)
}

// TimestampRange widens a partial timestamp to the period it names. raw is
// the client-supplied string and t its parsed value; lower is t and upper is
// the last millisecond of the coarsest unit raw leaves unspecified. A full
// seconds-precision value, or an unrecognized length, covers one second.
func TimestampRange(raw string, t time.Time) (lower, upper time.Time) {
	return t, TimestampUpper(raw, t)
}

// TimestampUpper returns the upper bound of TimestampRange.
func TimestampUpper(raw string, t time.Time) time.Time {
	var end time.Time
	switch len(raw) {
	case 4:
		end = t.AddDate(1, 0, 0)
	case 7:
		end = t.AddDate(0, 1, 0)
	case 10:
		end = t.AddDate(0, 0, 1)
	case 13:
		end = t.Add(time.Hour)
	case 16:
		end = t.Add(time.Minute)
	default:
		end = t.Add(time.Second)
	}
	return end.Add(-time.Millisecond)
}
