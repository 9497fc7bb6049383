// internal/browser/manager_test.go
package browser

import (
	"context"
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pagepilot-ai/pagepilot/internal/config"
)

func TestBuildAllocatorOptions(t *testing.T) {
	m := &Manager{
		logger: zap.NewNop(),
		browser: config.BrowserConfig{
			Headless: true,
			Args:     []string{"--window-size=1280,800", "--mute-audio"},
		},
	}

	opts := m.buildAllocatorOptions()

	// Defaults are kept and our overrides plus the custom args come on top.
	assert.Greater(t, len(opts), len(chromedp.DefaultExecAllocatorOptions))

	// The options must be applicable without starting a browser process.
	ctx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancel()
	require.NotNil(t, ctx)
}

func TestBuildAllocatorOptionsDefaultUserAgent(t *testing.T) {
	m := &Manager{logger: zap.NewNop(), browser: config.BrowserConfig{}}
	assert.NotPanics(t, func() { m.buildAllocatorOptions() })
}
