// internal/browser/executor_test.go
package browser_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pagepilot-ai/pagepilot/internal/browser"
	"github.com/pagepilot-ai/pagepilot/internal/engine"
	"github.com/pagepilot-ai/pagepilot/internal/mocks"
)

func newTestExecutor(testDataDir string) *browser.Executor {
	// High rate so tests don't sleep.
	return browser.NewExecutor(1000, testDataDir, zap.NewNop())
}

func TestRunExecutesActionsInOrder(t *testing.T) {
	page := mocks.NewFakePage()
	ex := newTestExecutor("")

	err := ex.Run(context.Background(), page, []engine.Action{
		{Type: engine.ActionNavigate, URL: "https://shop.test/cart"},
		{Type: engine.ActionFill, Selector: "#coupon", Value: "WELCOME10"},
		{Type: engine.ActionClick, Selector: "#apply"},
		{Type: engine.ActionWait, WaitMs: 5},
		{Type: engine.ActionScroll, Value: "down"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"navigate https://shop.test/cart",
		"fill #coupon WELCOME10",
		"click #apply",
		"wait 5ms",
		"scroll down",
	}, page.CallLog())
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	page := mocks.NewFakePage()
	page.Fail["click"] = errors.New("element not found")
	ex := newTestExecutor("")

	err := ex.Run(context.Background(), page, []engine.Action{
		{Type: engine.ActionClick, Selector: "#missing"},
		{Type: engine.ActionFill, Selector: "#never", Value: "reached"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "action 0 (click)")
	assert.Equal(t, []string{"click #missing"}, page.CallLog())
}

func TestUploadResolvesAgainstTestDataDir(t *testing.T) {
	page := mocks.NewFakePage()
	ex := newTestExecutor("/data/fixtures")

	err := ex.Run(context.Background(), page, []engine.Action{
		{Type: engine.ActionUpload, Selector: "#avatar", Value: "cat.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"upload #avatar " + filepath.Join("/data/fixtures", "cat.png")}, page.CallLog())
}

func TestUploadKeepsAbsolutePaths(t *testing.T) {
	page := mocks.NewFakePage()
	ex := newTestExecutor("/data/fixtures")

	err := ex.Run(context.Background(), page, []engine.Action{
		{Type: engine.ActionUpload, Selector: "#avatar", Value: "/tmp/cat.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"upload #avatar /tmp/cat.png"}, page.CallLog())
}

func TestCustomActionDispatch(t *testing.T) {
	page := mocks.NewFakePage()
	ex := newTestExecutor("")

	var gotName string
	var gotArgs map[string]interface{}
	ex.Dispatch = func(ctx context.Context, name string, args map[string]interface{}) error {
		gotName = name
		gotArgs = args
		return nil
	}

	err := ex.Run(context.Background(), page, []engine.Action{
		{Type: engine.ActionCustom, Name: "save_order_id", Args: map[string]interface{}{"selector": "#order"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "save_order_id", gotName)
	assert.Equal(t, "#order", gotArgs["selector"])
}

func TestCustomActionWithoutDispatcherFails(t *testing.T) {
	page := mocks.NewFakePage()
	ex := newTestExecutor("")

	err := ex.Run(context.Background(), page, []engine.Action{
		{Type: engine.ActionCustom, Name: "orphan"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no dispatcher for custom action "orphan"`)
}

func TestUnknownActionTypeFails(t *testing.T) {
	page := mocks.NewFakePage()
	ex := newTestExecutor("")

	err := ex.Run(context.Background(), page, []engine.Action{{Type: "teleport"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown action type "teleport"`)
}
