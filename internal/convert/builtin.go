package convert

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ParseInt converts to int; out of 32-bit range is invalid.
func ParseInt(raw string) any {
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil
	}
	return int(v)
}

func ParseInt64(raw string) any {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return v
}

func ParseFloat(raw string) any {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return v
}

var boolWords = strings.NewReplacer("yes", "true", "1", "true", "no", "false", "0", "false")

// ParseBool accepts true/false plus yes/no and 1/0, case-insensitively. The
// words are substituted textually, so anything that is not exactly "true"
// afterwards is false. Never nil.
func ParseBool(raw string) any {
	return boolWords.Replace(strings.ToLower(raw)) == "true"
}

func ParseUUID(raw string) any {
	v, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return v
}
