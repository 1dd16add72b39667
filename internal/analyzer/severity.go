package analyzer

import (
	"fmt"
	"strings"
)

// Severity represents how badly a finding affects reversibility or data.
type Severity int

const (
	// Safe indicates no concern.
	Safe Severity = iota
	// Low indicates a style issue that can make a revert fail on a drifted schema.
	Low
	// Medium indicates a migration that cannot be reverted at all.
	Medium
	// High indicates a revert that leaves objects behind or fails outright.
	High
	// Critical indicates data loss.
	Critical
)

// String returns the uppercase label for the severity level.
func (s Severity) String() string {
	switch s {
	case Safe:
		return "SAFE"
	case Low:
		return "LOW"
	case Medium:
		return "MEDIUM"
	case High:
		return "HIGH"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the severity label, so JSON output shows "HIGH" rather than 3.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSeverity parses a label such as "high" (case-insensitive).
func ParseSeverity(label string) (Severity, error) {
	for s := Safe; s <= Critical; s++ {
		if strings.EqualFold(label, s.String()) {
			return s, nil
		}
	}

	return Safe, fmt.Errorf("unknown severity %q", label)
}
