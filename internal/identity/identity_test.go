package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateID_Format(t *testing.T) {
	id := CandidateID("HiBob", "hibob.com")

	sum := sha256.Sum256([]byte("hibob|hibob.com"))
	want := "hibob-" + hex.EncodeToString(sum[:])[:12]
	assert.Equal(t, want, id)
	assert.Regexp(t, regexp.MustCompile(`^hibob-[0-9a-f]{12}$`), id)
}

func TestCandidateID_CaseInsensitive(t *testing.T) {
	assert.Equal(t, CandidateID("HiBob", "HIBOB.COM"), CandidateID("hibob", "hibob.com"))
}

func TestCandidateID_DistinctInputs(t *testing.T) {
	inputs := [][2]string{
		{"Salesforce", "salesforce.com"},
		{"Salesforce", "salesforce.org"},
		{"QuickBooks", "intuit.com"},
		{"Facebook", "facebook.com"},
		{"Facebook", ""},
	}
	seen := make(map[string]bool)
	for _, in := range inputs {
		id := CandidateID(in[0], in[1])
		assert.False(t, seen[id], "collision for %v", in)
		seen[id] = true
	}
}

func TestCandidateID_UnknownSlug(t *testing.T) {
	id := CandidateID("???", "")
	assert.Regexp(t, regexp.MustCompile(`^unknown-[0-9a-f]{12}$`), id)
}

func TestMethodID_Format(t *testing.T) {
	id := MethodID("REST API", "api", "hibob-0123456789ab")

	sum := sha256.Sum256([]byte("rest api|api|hibob-0123456789ab"))
	assert.Equal(t, "rest-api-api-"+hex.EncodeToString(sum[:])[:8], id)
}

func TestMethodID_DependsOnCandidate(t *testing.T) {
	assert.NotEqual(t,
		MethodID("CSV Export", "export", "a-000000000000"),
		MethodID("CSV Export", "export", "b-000000000000"))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"HiBob", "hibob"},
		{"Google Analytics 4", "google-analytics-4"},
		{"  Monday.com  ", "monday-com"},
		{"Café Señor", "cafe-senor"},
		{"C++ / Tools", "c-tools"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}
