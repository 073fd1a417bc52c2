package classifier

import (
	"encoding/json"
	"strings"

	"github.com/cmdrelay/cmdrelay/internal/types"
)

// DefaultDenialPhrases matches the stock permission-denial wording of the
// server and the common permission plugins. All entries must be lower-case.
var DefaultDenialPhrases = []string{
	"no permission",
	"you do not have permission",
	"you do not have access",
	"denied",
	"missing permission",
	"you don't have permission",
	"i'm sorry, but you do not have permission",
}

const unknownCommandPhrase = "unknown command"

// Classifier matches feedback text against a denial-phrase set.
type Classifier struct {
	denialPhrases []string
}

// New creates a Classifier. An empty phrase set falls back to
// DefaultDenialPhrases. Phrases are lower-cased for matching.
func New(denialPhrases []string) *Classifier {
	if len(denialPhrases) == 0 {
		denialPhrases = DefaultDenialPhrases
	}
	lowered := make([]string, len(denialPhrases))
	for i, p := range denialPhrases {
		lowered[i] = strings.ToLower(p)
	}
	return &Classifier{denialPhrases: lowered}
}

// Classify inspects raw feedback text. It returns (outcome, true) when the
// text definitively classifies the pending command, and (OutcomePending,
// false) when the text is indeterminate, empty, or unrecognized. It is pure:
// no I/O, no state.
func (c *Classifier) Classify(raw string) (types.Outcome, bool) {
	if raw == "" {
		return types.OutcomePending, false
	}
	text := strings.ToLower(StripFormatting(raw))
	for _, phrase := range c.denialPhrases {
		if strings.Contains(text, phrase) {
			return types.OutcomeNoPermission, true
		}
	}
	if strings.Contains(text, unknownCommandPhrase) {
		return types.OutcomeUnknown, true
	}
	return types.OutcomePending, false
}

// StripFormatting removes legacy chat formatting sequences: a section sign
// (U+00A7) followed by a single code character. A trailing bare section sign
// is dropped.
func StripFormatting(s string) string {
	if !strings.ContainsRune(s, '§') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '§' {
			i++ // skip the code character too
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}

// ExtractText reduces an intercepted chat packet to plain text. When the
// component JSON is exactly the single-field {"text":"..."} form its text is
// returned; anything richer, malformed, or empty falls back to the plain
// string field. Returns "" when neither source yields text.
func ExtractText(component, plain string) string {
	if text, ok := extractSimpleComponent(component); ok && text != "" {
		return text
	}
	return plain
}

// extractSimpleComponent decodes component JSON, accepting only an object
// whose sole key is "text" with a string value.
func extractSimpleComponent(component string) (string, bool) {
	component = strings.TrimSpace(component)
	if component == "" {
		return "", false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(component), &fields); err != nil {
		return "", false
	}
	raw, exists := fields["text"]
	if !exists || len(fields) != 1 {
		return "", false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", false
	}
	return text, true
}
