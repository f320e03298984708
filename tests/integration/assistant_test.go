//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssistant_AskCommitsQuota(t *testing.T) {
	env := SetupTestEnv(t)
	env.ProviderFail.Store(false)
	env.ProviderTokens.Store(200)

	email := fmt.Sprintf("ask-%d@test.com", uniqueID())
	RegisterUser(t, env, email, "password123")
	token := LoginUser(t, env, email, "password123")

	resp := DoRequest(t, env, "POST", "/api/v1/assistant/ask",
		map[string]string{"prompt": "explain goroutines", "mode": "explain"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := ParseResponse(t, resp)["data"].(map[string]any)
	assert.Equal(t, "stubbed assistant response", result["response"])
	tokens := result["tokens_used"].(map[string]any)
	assert.Equal(t, float64(200), tokens["total"])
	assert.Equal(t, float64(10000-200), result["quota_remaining"])

	// Usage dashboard reflects the commit
	resp = DoRequest(t, env, "GET", "/api/v1/assistant/usage", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	usage := ParseResponse(t, resp)["data"].(map[string]any)
	daily := usage["daily"].(map[string]any)
	assert.Equal(t, float64(200), daily["used"])
	assert.Equal(t, float64(1), daily["requests"])
	total := usage["total"].(map[string]any)
	assert.Equal(t, float64(200), total["tokens_used"])
}

func TestAssistant_ProviderFailureConsumesNoQuota(t *testing.T) {
	env := SetupTestEnv(t)
	env.ProviderFail.Store(true)
	t.Cleanup(func() { env.ProviderFail.Store(false) })

	email := fmt.Sprintf("fail-%d@test.com", uniqueID())
	RegisterUser(t, env, email, "password123")
	token := LoginUser(t, env, email, "password123")

	resp := DoRequest(t, env, "POST", "/api/v1/assistant/ask",
		map[string]string{"prompt": "generate a handler", "mode": "generate"}, token)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	resp.Body.Close()

	// No quota spent
	resp = DoRequest(t, env, "GET", "/api/v1/assistant/usage", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	daily := ParseResponse(t, resp)["data"].(map[string]any)["daily"].(map[string]any)
	assert.Equal(t, float64(0), daily["used"])

	// The failed attempt still appears in the interaction stats
	resp = DoRequest(t, env, "GET", "/api/v1/assistant/stats", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := ParseResponse(t, resp)["data"].(map[string]any)
	assert.Equal(t, float64(1), stats["total_interactions"])
	assert.Equal(t, float64(0), stats["success_rate"])
	assert.Equal(t, float64(0), stats["total_tokens_used"])
}

func TestAssistant_ProjectContextAndHistory(t *testing.T) {
	env := SetupTestEnv(t)
	env.ProviderFail.Store(false)
	env.ProviderTokens.Store(50)

	email := fmt.Sprintf("ctx-%d@test.com", uniqueID())
	RegisterUser(t, env, email, "password123")
	token := LoginUser(t, env, email, "password123")

	resp := DoRequest(t, env, "POST", "/api/v1/projects", map[string]string{"name": "ctxdemo"}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	projectID := ParseResponse(t, resp)["data"].(map[string]any)["id"].(string)

	resp = DoRequest(t, env, "PUT", "/api/v1/projects/"+projectID+"/files",
		map[string]string{"filename": "main.go", "content": "package main\n\nfunc main() {}\n"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Ask within the project; the file becomes prompt context
	resp = DoRequest(t, env, "POST", "/api/v1/projects/"+projectID+"/assistant",
		map[string]string{"prompt": "what does this program do", "mode": "explain"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := ParseResponse(t, resp)["data"].(map[string]any)
	contextFiles := result["context_files"].([]any)
	require.Len(t, contextFiles, 1)
	assert.Equal(t, "main.go", contextFiles[0].(map[string]any)["filename"])

	// History lists the interaction without a response body
	resp = DoRequest(t, env, "GET", "/api/v1/projects/"+projectID+"/assistant/history", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := ParseResponse(t, resp)["data"].([]any)
	require.Len(t, history, 1)
	entry := history[0].(map[string]any)
	assert.Equal(t, "what does this program do", entry["prompt"])
	assert.Equal(t, true, entry["success"])
	_, hasResponse := entry["response"]
	assert.False(t, hasResponse)
}

func TestAssistant_QuotaDenialAfterExhaustion(t *testing.T) {
	env := SetupTestEnv(t)
	env.ProviderFail.Store(false)
	env.ProviderTokens.Store(5000)
	t.Cleanup(func() { env.ProviderTokens.Store(100) })

	email := fmt.Sprintf("quota-%d@test.com", uniqueID())
	RegisterUser(t, env, email, "password123")
	token := LoginUser(t, env, email, "password123")

	// Two 5000-token calls exhaust the 10000 daily developer budget.
	for i := 0; i < 2; i++ {
		resp := DoRequest(t, env, "POST", "/api/v1/assistant/ask",
			map[string]string{"prompt": "explain this", "mode": "explain"}, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	resp := DoRequest(t, env, "GET", "/api/v1/assistant/usage", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	daily := ParseResponse(t, resp)["data"].(map[string]any)["daily"].(map[string]any)
	assert.Equal(t, float64(10000), daily["used"])
	assert.Equal(t, float64(0), daily["remaining"])

	// Third call denied before reaching the provider
	resp = DoRequest(t, env, "POST", "/api/v1/assistant/ask",
		map[string]string{"prompt": "explain this", "mode": "explain"}, token)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	resp.Body.Close()
}

func TestAssistant_ValidationErrors(t *testing.T) {
	env := SetupTestEnv(t)

	email := fmt.Sprintf("val-%d@test.com", uniqueID())
	RegisterUser(t, env, email, "password123")
	token := LoginUser(t, env, email, "password123")

	// Empty prompt
	resp := DoRequest(t, env, "POST", "/api/v1/assistant/ask",
		map[string]string{"prompt": "   ", "mode": "explain"}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Unknown mode
	resp = DoRequest(t, env, "POST", "/api/v1/assistant/ask",
		map[string]string{"prompt": "hello", "mode": "translate"}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
