// internal/engine/remote/client_test.go
package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pagepilot-ai/pagepilot/internal/config"
	"github.com/pagepilot-ai/pagepilot/internal/engine"
)

func testConfig(endpoint string) config.EngineConfig {
	return config.EngineConfig{
		Type:              config.EngineRemote,
		Endpoint:          endpoint,
		APIKey:            "pp-test-key",
		Timeout:           5 * time.Second,
		RequestsPerMinute: 600,
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	cfg := testConfig("https://engine.example.com")
	cfg.APIKey = ""

	_, err := New(cfg, "pilot-medium", zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAGEPILOT_ENGINE_API_KEY")
}

func TestPlanActions(t *testing.T) {
	var gotAuth string
	var gotReq engine.PlanRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/plan", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(engine.Plan{
			Actions: []engine.Action{
				{Type: engine.ActionClick, Selector: "#add-to-cart"},
			},
			Rationale: "single matching button",
		})
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL), "pilot-medium", zap.NewNop())
	require.NoError(t, err)

	plan, err := c.PlanActions(context.Background(), engine.PlanRequest{
		Instruction: "add the item to the cart",
		Snapshot:    engine.PageSnapshot{URL: "https://shop.test", Title: "Shop"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer pp-test-key", gotAuth)
	assert.Equal(t, "pilot-medium", gotReq.Model, "default model should be filled in")
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, engine.ActionClick, plan.Actions[0].Type)
}

func TestEvaluateCondition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/evaluate", r.URL.Path)
		json.NewEncoder(w).Encode(engine.Verdict{Holds: true, Details: "badge shows 1"})
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL), "pilot-medium", zap.NewNop())
	require.NoError(t, err)

	verdict, err := c.EvaluateCondition(context.Background(), engine.EvalRequest{Condition: "cart badge shows 1"})
	require.NoError(t, err)
	assert.True(t, verdict.Holds)
	assert.Equal(t, "badge shows 1", verdict.Details)
}

func TestExtractValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/extract", r.URL.Path)
		w.Write([]byte(`{"value":"$42.17"}`))
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL), "pilot-medium", zap.NewNop())
	require.NoError(t, err)

	value, err := c.ExtractValue(context.Background(), engine.ExtractRequest{Description: "the order total"})
	require.NoError(t, err)
	assert.Equal(t, "$42.17", value)
}

func TestErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"instruction is empty"}`))
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL), "pilot-medium", zap.NewNop())
	require.NoError(t, err)

	_, err = c.PlanActions(context.Background(), engine.PlanRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instruction is empty")
	assert.Contains(t, err.Error(), "422")
}

func TestOpaqueErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c, err := New(testConfig(srv.URL), "pilot-medium", zap.NewNop())
	require.NoError(t, err)

	_, err = c.ExtractValue(context.Background(), engine.ExtractRequest{Description: "anything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}
