// -- cmd/cmd_test.go --
package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScenarioYAML = `
name: checkout
url: https://shop.example
vars:
  item: blue socks
  password: hunter2
sensitive:
  - password
steps:
  - act: "add $item to the cart"
  - act: "enter $password in the password box"
  - assert: "the cart badge shows 1 item"
`

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testScenarioYAML), 0o644))
	return path
}

// execute runs the root command with args and returns the combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestRenderMasksSensitiveVariables(t *testing.T) {
	path := writeScenario(t)

	out, err := execute(t, "render", path)
	require.NoError(t, err)

	assert.Contains(t, out, "scenario: checkout")
	assert.Contains(t, out, "add blue socks to the cart")
	assert.Contains(t, out, "enter *** in the password box")
	assert.NotContains(t, out, "hunter2")
}

func TestRenderRejectsMissingFile(t *testing.T) {
	_, err := execute(t, "render", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestVarsListsMaskedValues(t *testing.T) {
	path := writeScenario(t)

	out, err := execute(t, "vars", path)
	require.NoError(t, err)

	assert.Contains(t, out, "item=blue socks")
	assert.Contains(t, out, "password=***")
	assert.NotContains(t, out, "hunter2")
}

func TestRunRejectsMissingScenario(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestRemoteEngineRequiresAPIKey(t *testing.T) {
	t.Setenv("PAGEPILOT_ENGINE_TYPE", "remote")
	t.Setenv("PAGEPILOT_ENGINE_API_KEY", "")

	_, err := execute(t, "vars")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAGEPILOT_ENGINE_API_KEY")
}
