package parse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// missingRe matches the spellings spreadsheet and pandas exports use for an empty cell.
var missingRe = regexp.MustCompile(`(?i)^(|nan|null|none|na|n/a)$`)

// IsMissing reports whether a raw cell holds no value.
func IsMissing(raw string) bool {
	return missingRe.MatchString(strings.TrimSpace(raw))
}

// Float parses a required numeric cell. Only finite values are accepted.
func Float(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("unable to parse number: %q", raw)
	}
	return v, nil
}

// OptionalFloat parses a numeric cell that may be empty; empty cells yield nil.
func OptionalFloat(raw string) (*float64, error) {
	if IsMissing(raw) {
		return nil, nil
	}
	v, err := Float(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Int parses a required integer cell. Exports that went through a float
// column ("12.0") are accepted as long as there is no fractional part.
func Int(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := Float(s)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("unable to parse integer: %q", raw)
	}
	return int64(f), nil
}

// OptionalInt parses an integer cell that may be empty; empty cells yield nil.
func OptionalInt(raw string) (*int64, error) {
	if IsMissing(raw) {
		return nil, nil
	}
	n, err := Int(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Bool parses a flag cell. Python ("True"), JSON ("true") and numeric
// ("1") spellings are accepted.
func Bool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "1.0", "yes":
		return true, nil
	case "false", "0", "0.0", "no":
		return false, nil
	}
	return false, fmt.Errorf("unable to parse boolean: %q", raw)
}
