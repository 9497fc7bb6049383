// internal/engine/scripted/rules_test.go
package scripted

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagepilot-ai/pagepilot/internal/engine"
)

const sampleRulesYAML = `
- match: "add to cart"
  actions:
    - type: click
      selector: "#add-to-cart"
- pattern: "badge shows \\d+"
  holds: true
- match: "order total"
  value: "$42.17"
`

func TestParseRules(t *testing.T) {
	rules, err := ParseRules([]byte(sampleRulesYAML))
	require.NoError(t, err)
	require.Len(t, rules, 3)

	assert.Equal(t, "add to cart", rules[0].Match)
	require.Len(t, rules[0].Actions, 1)
	assert.Equal(t, engine.ActionClick, rules[0].Actions[0].Type)

	require.NotNil(t, rules[1].Pattern)
	assert.True(t, rules[1].matches("the badge shows 3"))

	assert.Equal(t, "$42.17", rules[2].Value)
}

func TestParseRulesRejectsUnknownFields(t *testing.T) {
	_, err := ParseRules([]byte(`
- match: "typo"
  retries: 3
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries")
}

func TestParseRulesRequiresMatcher(t *testing.T) {
	_, err := ParseRules([]byte(`
- holds: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match or pattern is required")
}

func TestParseRulesRejectsBadPattern(t *testing.T) {
	_, err := ParseRules([]byte(`
- pattern: "(unclosed"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiling pattern")
}

func TestLoadRulesDrivesEngine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRulesYAML), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)

	e := New(rules, nil)
	verdict, err := e.EvaluateCondition(context.Background(), engine.EvalRequest{Condition: "the badge shows 7"})
	require.NoError(t, err)
	assert.True(t, verdict.Holds)

	_, err = LoadRules(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
