package clustering

import (
	"regexp"
	"strings"
)

// Linguistic patterns expressing unmet need. Each match yields one candidate
// short phrase for clustering.
var needPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bhow do (?:i|you|we) ([^.?!\n]{5,100})`),
	regexp.MustCompile(`(?i)\blooking for (?:a |an |some )?([^.?!\n]{5,100})`),
	regexp.MustCompile(`(?i)\bstruggling (?:with|to) ([^.?!\n]{5,100})`),
	regexp.MustCompile(`(?i)\bis there (?:a|an|any) ([^.?!\n]{5,100})`),
	regexp.MustCompile(`(?i)\bi wish (?:there was|i had|i could) ([^.?!\n]{5,100})`),
	regexp.MustCompile(`(?i)\bi can'?t find (?:a |an |any )?([^.?!\n]{5,100})`),
	regexp.MustCompile(`(?i)\bdoes anyone know (?:of )?(?:a |an )?([^.?!\n]{5,100})`),
	regexp.MustCompile(`(?i)\bi need (?:a way to|something that|a tool (?:that|to)) ([^.?!\n]{5,100})`),
	regexp.MustCompile(`(?i)\bwhat(?:'s| is) the best way to ([^.?!\n]{5,100})`),
	regexp.MustCompile(`(?i)\bsick of ([^.?!\n]{5,100})`),
}

const (
	maxSignalsPerText = 10
	minPhraseWords    = 2
)

// Signal is one extracted demand phrase with its coarse category
type Signal struct {
	Phrase   string
	Category string
}

// ExtractSignals scans text for need-expressing phrases and assigns each a
// coarse category. Duplicate phrases within one text yield one signal.
func ExtractSignals(text, channel string) []Signal {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var signals []Signal

	for _, pattern := range needPatterns {
		matches := pattern.FindAllStringSubmatch(text, -1)
		for _, match := range matches {
			phrase := normalizePhrase(match[0])
			if phrase == "" {
				continue
			}
			if _, dup := seen[phrase]; dup {
				continue
			}
			seen[phrase] = struct{}{}

			signals = append(signals, Signal{
				Phrase:   phrase,
				Category: CategoryFor(phrase, channel),
			})
			if len(signals) >= maxSignalsPerText {
				return signals
			}
		}
	}

	return signals
}

func normalizePhrase(raw string) string {
	phrase := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	phrase = strings.Trim(phrase, " .,;:!?")
	if len(strings.Fields(phrase)) < minPhraseWords {
		return ""
	}
	return phrase
}
