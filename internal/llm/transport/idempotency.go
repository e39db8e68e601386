package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
)

// IdemKey is a deterministic fingerprint of a request's semantic content.
// Replays of the same logical call (activity retries, workflow replays)
// produce the same key, so the cache and provider-side deduplication both
// recognize them.
type IdemKey string

// String returns the key's hex form.
func (k IdemKey) String() string { return string(k) }

// GenerateIdemKey fingerprints the call target and normalized prompt
// content.
func GenerateIdemKey(req *Request) IdemKey {
	h := sha256.New()
	for _, part := range []string{
		string(req.Operation),
		req.Provider,
		req.Model,
		normalizeText(req.SystemPrompt),
		normalizeText(req.UserContent),
	} {
		io.WriteString(h, part)
		h.Write([]byte{0})
	}
	return IdemKey(hex.EncodeToString(h.Sum(nil)))
}

// normalizeText folds whitespace variations so equivalent prompts hash
// identically: trims, converts CRLF to LF, collapses runs of spaces.
func normalizeText(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Join(strings.Fields(text), " ")
}
