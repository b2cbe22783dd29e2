// Package normalize turns raw model output from the backend into the plain
// text shown in the chat history.
package normalize

import (
	"sort"
	"strings"

	"github.com/liliang-cn/pdfchat/internal/config"
)

const emphasisMarker = "**"

// Rules is the configurable data the pipeline matches against.
type Rules struct {
	// ClassificationMarker and ResponseMarker delimit leaked prompt
	// classification, e.g. "Classification: greeting\nResponse: Hi!".
	ClassificationMarker string
	ResponseMarker       string
	// Preambles are boilerplate openers asserting relevance to the document.
	Preambles []string
	// EndSentinels are end-of-sequence tokens the model may leave at the end.
	EndSentinels []string
}

// DefaultRules returns the rules matching the backend's prompt format
func DefaultRules() Rules {
	return Rules{
		ClassificationMarker: "Classification:",
		ResponseMarker:       "Response:",
		Preambles:            append([]string(nil), config.DefaultPreambles...),
		EndSentinels:         append([]string(nil), config.DefaultEndSentinels...),
	}
}

// RulesFromConfig builds rules from the normalizer config section
func RulesFromConfig(cfg config.NormalizerConfig) Rules {
	return Rules{
		ClassificationMarker: cfg.ClassificationMarker,
		ResponseMarker:       cfg.ResponseMarker,
		Preambles:            cfg.Preambles,
		EndSentinels:         cfg.EndSentinels,
	}
}

// Normalizer applies the cleanup pipeline. It is safe for concurrent use.
type Normalizer struct {
	classification string
	response       string
	preambles      []string
	sentinels      []string
}

// New creates a normalizer. Empty preambles and sentinels are ignored and the
// rest are tried longest first, so the most specific match wins.
func New(rules Rules) *Normalizer {
	return &Normalizer{
		classification: rules.ClassificationMarker,
		response:       rules.ResponseMarker,
		preambles:      longestFirst(rules.Preambles),
		sentinels:      longestFirst(rules.EndSentinels),
	}
}

var defaultNormalizer = New(DefaultRules())

// Normalize cleans raw using DefaultRules
func Normalize(raw string) string {
	return defaultNormalizer.Normalize(raw)
}

// Normalize runs the pipeline until the text stops changing. Every step that
// changes the text makes it shorter, so the loop terminates, and the result
// is a fixed point: Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(raw string) string {
	text := raw
	for {
		next := n.pass(text)
		if next == text {
			return next
		}
		text = next
	}
}

func (n *Normalizer) pass(text string) string {
	text = strings.TrimSpace(text)

	if stripped, ok := n.stripClassification(text); ok {
		text = stripped
	} else {
		text = n.stripPreamble(text)
	}

	text = n.stripSentinel(text)

	if strings.HasPrefix(text, "?") {
		text = strings.TrimSpace(text[1:])
	}

	return strings.TrimSpace(strings.ReplaceAll(text, emphasisMarker, ""))
}

// stripClassification keeps only what follows the response marker when the
// text leaks a "Classification: ... Response: ..." block.
func (n *Normalizer) stripClassification(text string) (string, bool) {
	if n.classification == "" || n.response == "" {
		return text, false
	}
	idx := strings.Index(text, n.classification)
	if idx < 0 {
		return text, false
	}
	rest := text[idx+len(n.classification):]
	r := strings.Index(rest, n.response)
	if r < 0 {
		return text, false
	}
	return strings.TrimSpace(rest[r+len(n.response):]), true
}

func (n *Normalizer) stripPreamble(text string) string {
	for _, p := range n.preambles {
		if strings.HasPrefix(text, p) {
			return strings.TrimSpace(text[len(p):])
		}
	}
	return text
}

func (n *Normalizer) stripSentinel(text string) string {
	for _, s := range n.sentinels {
		if strings.HasSuffix(text, s) {
			return strings.TrimSpace(text[:len(text)-len(s)])
		}
	}
	return text
}

func longestFirst(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}
