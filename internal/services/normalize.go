// Package services – input normalization.
//
// Raw source text arrives untrusted from the client. Before anything else
// happens it is normalized: surrounding whitespace trimmed, every internal
// run of whitespace collapsed to a single space, and a SHA-256 fingerprint
// computed over the result. The fingerprint is stored on the generation row
// for traceability; it is never used for uniqueness enforcement.
package services

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"
)

// NormalizedInput is the ephemeral, per-request result of normalizing raw
// source text. Length always equals the rune count of Text.
type NormalizedInput struct {
	Text        string
	Length      int
	Fingerprint string
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// NormalizeInput trims and collapses whitespace in raw text and fingerprints
// the result. It accepts any string, including empty, and is deterministic:
// the same raw input always yields the same fingerprint. The hash is applied
// exactly once, here; downstream code stores the fingerprint verbatim.
func NormalizeInput(raw string) NormalizedInput {
	text := whitespaceRE.ReplaceAllString(strings.TrimSpace(raw), " ")
	sum := sha256.Sum256([]byte(text))
	return NormalizedInput{
		Text:        text,
		Length:      utf8.RuneCountInString(text),
		Fingerprint: hex.EncodeToString(sum[:]),
	}
}
