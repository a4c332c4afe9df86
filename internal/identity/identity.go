// Package identity derives stable identifiers for tool candidates and output methods.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// CandidateHashLength is the number of hex characters kept from a candidate hash
	CandidateHashLength = 12
	// MethodHashLength is the number of hex characters kept from a method hash
	MethodHashLength = 8
	// UnknownSlug is used when a name has no sluggable characters
	UnknownSlug = "unknown"
	// UnknownCandidateID is the id of the sentinel candidate substituted for an empty resolution
	UnknownCandidateID = "unknown-000000000000"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// CandidateID derives a candidate id from a tool name and domain.
// Format: "{slug}-{first 12 hex of sha256(name|domain)}", both inputs lowercased.
func CandidateID(toolName, domain string) string {
	name := strings.ToLower(toolName)
	hash := shortHash(name+"|"+strings.ToLower(domain), CandidateHashLength)
	return slugOrUnknown(name) + "-" + hash
}

// MethodID derives a method id from a method name, its type and the owning candidate id.
// Format: "{slug}-{type}-{first 8 hex of sha256(name|type|candidateID)}".
func MethodID(methodName, methodType, candidateID string) string {
	name := strings.ToLower(methodName)
	hash := shortHash(name+"|"+methodType+"|"+candidateID, MethodHashLength)
	return slugOrUnknown(name) + "-" + methodType + "-" + hash
}

// Slugify lowercases s, folds accented letters to ASCII and joins the
// remaining alphanumeric runs with single hyphens.
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(folded), "-")
	return strings.Trim(slug, "-")
}

func slugOrUnknown(name string) string {
	if slug := Slugify(name); slug != "" {
		return slug
	}
	return UnknownSlug
}

func shortHash(input string, length int) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:length]
}
