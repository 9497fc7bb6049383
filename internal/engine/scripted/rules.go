// internal/engine/scripted/rules.go
package scripted

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/pagepilot-ai/pagepilot/internal/engine"
)

// ruleSpec is the YAML shape of a rule.
type ruleSpec struct {
	Match   string       `yaml:"match,omitempty"`
	Pattern string       `yaml:"pattern,omitempty"`
	Actions []actionSpec `yaml:"actions,omitempty"`
	Holds   bool         `yaml:"holds,omitempty"`
	Details string       `yaml:"details,omitempty"`
	Value   string       `yaml:"value,omitempty"`
}

type actionSpec struct {
	Type     string                 `yaml:"type"`
	Selector string                 `yaml:"selector,omitempty"`
	Value    string                 `yaml:"value,omitempty"`
	URL      string                 `yaml:"url,omitempty"`
	Name     string                 `yaml:"name,omitempty"`
	Args     map[string]interface{} `yaml:"args,omitempty"`
	WaitMs   int                    `yaml:"wait_ms,omitempty"`
}

func (s ruleSpec) toRule(index int) (Rule, error) {
	if s.Match == "" && s.Pattern == "" {
		return Rule{}, fmt.Errorf("rule %d: match or pattern is required", index+1)
	}

	rule := Rule{
		Match:   s.Match,
		Holds:   s.Holds,
		Details: s.Details,
		Value:   s.Value,
	}
	if s.Pattern != "" {
		pattern, err := regexp.Compile(s.Pattern)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %d: compiling pattern: %w", index+1, err)
		}
		rule.Pattern = pattern
	}
	for _, a := range s.Actions {
		rule.Actions = append(rule.Actions, engine.Action{
			Type:     engine.ActionType(a.Type),
			Selector: a.Selector,
			Value:    a.Value,
			URL:      a.URL,
			Name:     a.Name,
			Args:     a.Args,
			WaitMs:   a.WaitMs,
		})
	}
	return rule, nil
}

// ParseRules decodes an ordered rule list from YAML, rejecting unknown fields.
func ParseRules(data []byte) ([]Rule, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var specs []ruleSpec
	if err := dec.Decode(&specs); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}

	rules := make([]Rule, 0, len(specs))
	for i, spec := range specs {
		rule, err := spec.toRule(i)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// LoadRules reads and parses a rules file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules %s: %w", path, err)
	}
	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}
