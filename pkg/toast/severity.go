package toast

import (
	"strings"
	"time"
)

// Severity controls a notification's styling and dismiss delay.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ParseSeverity maps a level name to a Severity. Unknown names map to
// SeverityInfo. "danger" is accepted as an alias for error.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success":
		return SeveritySuccess
	case "warning", "warn":
		return SeverityWarning
	case "error", "danger":
		return SeverityError
	default:
		return SeverityInfo
	}
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// Variant returns the stylesheet color variant for s.
func (s Severity) Variant() string {
	if s == SeverityError {
		return "danger"
	}
	return string(s)
}

// Policy maps severities to auto-dismiss delays.
type Policy struct {
	Info    time.Duration
	Success time.Duration
	Warning time.Duration
	Error   time.Duration
}

// DefaultPolicy returns the standard delays: 5s for error and warning,
// 3s for info and success.
func DefaultPolicy() Policy {
	return Policy{
		Info:    3 * time.Second,
		Success: 3 * time.Second,
		Warning: 5 * time.Second,
		Error:   5 * time.Second,
	}
}

// Delay returns the auto-dismiss delay for s. Zero fields fall back to
// the default policy.
func (p Policy) Delay(s Severity) time.Duration {
	def := DefaultPolicy()
	pick := func(v, fallback time.Duration) time.Duration {
		if v > 0 {
			return v
		}
		return fallback
	}
	switch s {
	case SeverityError:
		return pick(p.Error, def.Error)
	case SeverityWarning:
		return pick(p.Warning, def.Warning)
	case SeveritySuccess:
		return pick(p.Success, def.Success)
	default:
		return pick(p.Info, def.Info)
	}
}
