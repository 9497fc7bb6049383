// internal/scenario/scenario.go

// Package scenario loads YAML flow definitions and replays them through an
// agent. A scenario is an ordered list of steps; each step is exactly one of
// the agent operations (act, assert, eval, extract, login, step, action,
// navigate).
package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pagepilot-ai/pagepilot/internal/engine"
)

// Scenario is one replayable browser flow.
type Scenario struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	URL         string            `yaml:"url,omitempty"`
	Vars        map[string]string `yaml:"vars,omitempty"`
	Sensitive   []string          `yaml:"sensitive,omitempty"`
	Steps       []Step            `yaml:"steps"`
}

// Step holds exactly one operation. Which field is set determines the kind;
// Validate rejects steps with zero or several operations.
type Step struct {
	Act      string        `yaml:"act,omitempty"`
	Assert   string        `yaml:"assert,omitempty"`
	Eval     *EvalStep     `yaml:"eval,omitempty"`
	Extract  *ExtractStep  `yaml:"extract,omitempty"`
	Login    *LoginStep    `yaml:"login,omitempty"`
	Step     *FallbackStep `yaml:"step,omitempty"`
	Action   *ActionStep   `yaml:"action,omitempty"`
	Navigate string        `yaml:"navigate,omitempty"`
}

// EvalStep evaluates a condition and stores the boolean outcome.
type EvalStep struct {
	Condition string `yaml:"condition"`
	Var       string `yaml:"var,omitempty"`
}

// ExtractStep pulls a value off the page into a variable.
type ExtractStep struct {
	Description string `yaml:"description"`
	Var         string `yaml:"var"`
}

// LoginStep performs the deterministic credential login.
type LoginStep struct {
	URL        string `yaml:"url"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	TOTPSecret string `yaml:"totp_secret,omitempty"`
}

// FallbackStep runs an explicit action list instead of a planned one.
type FallbackStep struct {
	Description string       `yaml:"description"`
	MaxSteps    int          `yaml:"max_steps,omitempty"`
	Fallback    []ActionSpec `yaml:"fallback"`
}

// ActionStep invokes a registered custom action.
type ActionStep struct {
	Name string                 `yaml:"name"`
	Args map[string]interface{} `yaml:"args,omitempty"`
}

// ActionSpec is the YAML shape of a typed browser action.
type ActionSpec struct {
	Type     string                 `yaml:"type"`
	Selector string                 `yaml:"selector,omitempty"`
	Value    string                 `yaml:"value,omitempty"`
	URL      string                 `yaml:"url,omitempty"`
	Name     string                 `yaml:"name,omitempty"`
	Args     map[string]interface{} `yaml:"args,omitempty"`
	WaitMs   int                    `yaml:"wait_ms,omitempty"`
}

// ToAction converts the YAML shape into the engine's action type.
func (s ActionSpec) ToAction() engine.Action {
	return engine.Action{
		Type:     engine.ActionType(s.Type),
		Selector: s.Selector,
		Value:    s.Value,
		URL:      s.URL,
		Name:     s.Name,
		Args:     s.Args,
		WaitMs:   s.WaitMs,
	}
}

// Kind names the operation a step performs.
func (s Step) Kind() string {
	switch {
	case s.Act != "":
		return "act"
	case s.Assert != "":
		return "assert"
	case s.Eval != nil:
		return "eval"
	case s.Extract != nil:
		return "extract"
	case s.Login != nil:
		return "login"
	case s.Step != nil:
		return "step"
	case s.Action != nil:
		return "action"
	case s.Navigate != "":
		return "navigate"
	}
	return ""
}

func (s Step) operationCount() int {
	n := 0
	if s.Act != "" {
		n++
	}
	if s.Assert != "" {
		n++
	}
	if s.Eval != nil {
		n++
	}
	if s.Extract != nil {
		n++
	}
	if s.Login != nil {
		n++
	}
	if s.Step != nil {
		n++
	}
	if s.Action != nil {
		n++
	}
	if s.Navigate != "" {
		n++
	}
	return n
}

// Validate checks structural constraints before a scenario runs.
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("scenario requires a name")
	}
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	for i, step := range sc.Steps {
		switch n := step.operationCount(); {
		case n == 0:
			return fmt.Errorf("scenario %q step %d declares no operation", sc.Name, i+1)
		case n > 1:
			return fmt.Errorf("scenario %q step %d declares %d operations, want exactly one", sc.Name, i+1, n)
		}
		if step.Extract != nil && (step.Extract.Description == "" || step.Extract.Var == "") {
			return fmt.Errorf("scenario %q step %d: extract requires description and var", sc.Name, i+1)
		}
		if step.Login != nil && step.Login.URL == "" {
			return fmt.Errorf("scenario %q step %d: login requires a url", sc.Name, i+1)
		}
		if step.Step != nil && len(step.Step.Fallback) == 0 {
			return fmt.Errorf("scenario %q step %d: step requires fallback actions", sc.Name, i+1)
		}
		if step.Action != nil && step.Action.Name == "" {
			return fmt.Errorf("scenario %q step %d: action requires a name", sc.Name, i+1)
		}
	}
	return nil
}

// Parse decodes a scenario document, rejecting unknown fields.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}
