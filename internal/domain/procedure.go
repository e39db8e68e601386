// Package domain defines the core model for procedure quiz generation:
// procedure identities, questions, batches, validation verdicts, tracking
// records, and the workflow state shared across pipeline stages.
package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// SentinelCode identifies documents whose filename yields no valid
// procedure code. Scans queue such documents with an error flag instead of
// aborting, so one malformed name never hides the rest of the directory.
const SentinelCode = "UNKNOWN"

// DefaultVersion applies when a filename carries no version suffix.
const DefaultVersion = 1

var (
	// codePattern is the strict shape of a procedure code.
	codePattern = regexp.MustCompile(`^[A-Z]+-[A-Z]+-\d+$`)

	// stemPattern matches a full document stem: a procedure code optionally
	// followed by a " V.<digits>" revision suffix.
	stemPattern = regexp.MustCompile(`^([A-Z]+-[A-Z]+-\d+)(?:\s+V\.(\d+))?$`)

	// embeddedCodePattern recovers a code buried inside a stem that does not
	// match the strict grammar.
	embeddedCodePattern = regexp.MustCompile(`[A-Z]+-[A-Z]+-\d+`)

	// versionSuffixPattern recovers a revision suffix during best-effort
	// extraction.
	versionSuffixPattern = regexp.MustCompile(`\sV\.(\d+)`)
)

// ProcedureIdentity uniquely identifies one revision of a procedure.
type ProcedureIdentity struct {
	Code    string `json:"codigo"`
	Version int    `json:"version"`
}

// TrackingKey returns the idempotence key "{code}_v{version}" under which
// this revision's generation state is recorded.
func (p ProcedureIdentity) TrackingKey() string {
	return fmt.Sprintf("%s_v%d", p.Code, p.Version)
}

// IsSentinel reports whether the identity came from an unrecognizable
// filename.
func (p ProcedureIdentity) IsSentinel() bool { return p.Code == SentinelCode }

// String renders the identity for logs and error messages.
func (p ProcedureIdentity) String() string {
	return fmt.Sprintf("%s v%d", p.Code, p.Version)
}

// ValidCode reports whether code matches the required PREFIX-PREFIX-digits
// shape.
func ValidCode(code string) bool { return codePattern.MatchString(code) }

// ParseProcedureFilename derives a procedure identity from a document
// filename. The stem grammar is "<CODE>" or "<CODE> V.<n>"; a missing
// suffix means version 1. When the stem does not match, a code embedded
// anywhere in it is recovered best-effort together with any revision
// suffix. The boolean is false when no valid code could be derived, in
// which case the sentinel identity is returned; callers decide whether
// that is fatal.
func ParseProcedureFilename(name string) (ProcedureIdentity, bool) {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	stem = strings.TrimSpace(stem)

	if m := stemPattern.FindStringSubmatch(stem); m != nil {
		return ProcedureIdentity{Code: m[1], Version: parseVersion(m[2])}, true
	}

	if code := embeddedCodePattern.FindString(stem); code != "" {
		version := DefaultVersion
		if m := versionSuffixPattern.FindStringSubmatch(stem); m != nil {
			version = parseVersion(m[1])
		}
		return ProcedureIdentity{Code: code, Version: version}, true
	}

	return ProcedureIdentity{Code: SentinelCode, Version: DefaultVersion}, false
}

func parseVersion(s string) int {
	if s == "" {
		return DefaultVersion
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return DefaultVersion
	}
	return v
}

// QueueItem is one scanned document awaiting question generation. Items are
// recomputed on every scan and never persisted. Err carries the reason a
// document could not be fully resolved; such items still enter the queue so
// the workflow can report them as explicit per-item failures.
type QueueItem struct {
	Identity ProcedureIdentity `json:"procedimiento"`
	Path     string            `json:"path"`
	Title    string            `json:"title,omitempty"`
	Scope    string            `json:"scope,omitempty"`
	Err      string            `json:"error,omitempty"`
}
