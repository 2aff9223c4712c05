package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Term is one weighted lexicon entry, matched case-insensitively as a
// substring of the input.
type Term struct {
	Phrase string `yaml:"phrase"`
	Weight int    `yaml:"weight"`
}

// Lexicon is the fraud keyword lexicon. It is data, not code: the built-in
// default can be replaced by an external YAML file so weights can be tuned
// without a redeploy. Entries are ordered slices, not maps, so reason output
// is reproducible.
type Lexicon struct {
	HighRisk   []Term   `yaml:"high_risk"`   // weights 15-30
	MediumRisk []Term   `yaml:"medium_risk"` // weights 5-10
	Urgency    []string `yaml:"urgency"`     // each occurrence adds 5
}

// DefaultLexicon returns the built-in lexicon.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		HighRisk: []Term{
			{Phrase: "guaranteed", Weight: 20},
			{Phrase: "risk-free", Weight: 20},
			{Phrase: "double your money", Weight: 25},
			{Phrase: "triple your money", Weight: 30},
			{Phrase: "insider", Weight: 20},
			{Phrase: "hot tip", Weight: 15},
			{Phrase: "sure shot", Weight: 20},
			{Phrase: "can't lose", Weight: 25},
			{Phrase: "secret", Weight: 15},
		},
		MediumRisk: []Term{
			{Phrase: "limited time", Weight: 10},
			{Phrase: "act now", Weight: 10},
			{Phrase: "exclusive", Weight: 10},
			{Phrase: "extraordinary returns", Weight: 10},
			{Phrase: "easy money", Weight: 10},
			{Phrase: "get rich quick", Weight: 10},
		},
		Urgency: []string{"urgent", "hurry", "immediate", "today only", "expires"},
	}
}

// LoadLexicon reads a lexicon override from a YAML file. An empty path
// returns the default lexicon.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var lex Lexicon
	if err := yaml.Unmarshal(b, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if err := lex.Validate(); err != nil {
		return nil, fmt.Errorf("validate lexicon: %w", err)
	}
	return &lex, nil
}

// Validate rejects empty or non-positive entries.
func (l *Lexicon) Validate() error {
	if len(l.HighRisk) == 0 && len(l.MediumRisk) == 0 && len(l.Urgency) == 0 {
		return fmt.Errorf("lexicon is empty")
	}
	for _, t := range append(append([]Term{}, l.HighRisk...), l.MediumRisk...) {
		if t.Phrase == "" {
			return fmt.Errorf("lexicon term with empty phrase")
		}
		if t.Weight <= 0 {
			return fmt.Errorf("lexicon term %q has non-positive weight %d", t.Phrase, t.Weight)
		}
	}
	for _, u := range l.Urgency {
		if u == "" {
			return fmt.Errorf("lexicon urgency term is empty")
		}
	}
	return nil
}
