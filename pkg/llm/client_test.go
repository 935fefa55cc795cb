package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/apperrors"
	"github.com/ManishPrakkash/SmartCodeAnalyser/pkg/models"
)

const testAPIKey = "test-key-0123456789"

// stubGemini records every request path and answers with the status chosen by respond.
type stubGemini struct {
	mu      sync.Mutex
	paths   []string
	keys    []string
	bodies  []map[string]any
	respond func(call int, model string) (int, string)
}

func (s *stubGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	s.mu.Lock()
	call := len(s.paths)
	s.paths = append(s.paths, r.URL.Path)
	s.keys = append(s.keys, r.URL.Query().Get("key"))
	s.bodies = append(s.bodies, body)
	s.mu.Unlock()

	model := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1beta/models/"), ":generateContent")
	status, payload := s.respond(call, model)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, payload)
}

func (s *stubGemini) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

func textReply(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, text)
}

func newTestClient(t *testing.T, stub *stubGemini, model string, logger *zap.Logger) *Client {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Provider:   "gemini",
		APIKey:     testAPIKey,
		Model:      model,
		Endpoint:   srv.URL + "/v1beta/models/%s:generateContent",
		HTTPClient: srv.Client(),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestGenerate_FallsBackOnNotFound(t *testing.T) {
	stub := &stubGemini{respond: func(call int, _ string) (int, string) {
		if call < 2 {
			return http.StatusNotFound, `{"error":{"code":404,"message":"not found"}}`
		}
		return http.StatusOK, textReply("ok")
	}}
	client := newTestClient(t, stub, "", nil)

	got := client.Generate(context.Background(), models.AIKindDebug, "class A {}")

	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, stub.calls())
	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", stub.paths[2])
}

func TestGenerate_UnauthorizedStopsImmediately(t *testing.T) {
	stub := &stubGemini{respond: func(int, string) (int, string) {
		return http.StatusUnauthorized, `{"error":{"message":"API key not valid"}}`
	}}
	client := newTestClient(t, stub, "", nil)

	got := client.Generate(context.Background(), models.AIKindExplain, "class A {}")

	assert.Equal(t, MsgAuth, got)
	assert.Equal(t, 1, stub.calls())
}

func TestGenerate_AllNotFound(t *testing.T) {
	stub := &stubGemini{respond: func(int, string) (int, string) {
		return http.StatusNotFound, `{}`
	}}
	client := newTestClient(t, stub, "", nil)

	got := client.Generate(context.Background(), models.AIKindExplain, "class A {}")

	assert.Equal(t, MsgNoModel, got)
	assert.Equal(t, len(DefaultGeminiModels), stub.calls())
}

func TestGenerate_OverrideTriedFirst(t *testing.T) {
	stub := &stubGemini{respond: func(_ int, model string) (int, string) {
		if model == "custom-x" {
			return http.StatusNotFound, `{}`
		}
		return http.StatusOK, textReply("fine")
	}}
	client := newTestClient(t, stub, "custom-x", nil)

	got := client.Generate(context.Background(), models.AIKindRefactor, "x")

	assert.Equal(t, "fine", got)
	require.Equal(t, 2, stub.calls())
	assert.Contains(t, stub.paths[0], "custom-x")
	assert.Contains(t, stub.paths[1], DefaultGeminiModels[0])
}

func TestGenerate_StatusMessages(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, MsgBadRequest},
		{http.StatusForbidden, MsgAuth},
		{http.StatusTooManyRequests, MsgRateLimit},
		{http.StatusInternalServerError, MsgUnavailable},
		{http.StatusServiceUnavailable, MsgUnavailable},
		{http.StatusTeapot, MsgHTTP},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			stub := &stubGemini{respond: func(int, string) (int, string) {
				return tt.status, `{}`
			}}
			client := newTestClient(t, stub, "", nil)

			got := client.Generate(context.Background(), models.AIKindDebug, "x")

			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, stub.calls())
		})
	}
}

func TestGenerate_ResponseBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error envelope", `{"error":{"code":400,"message":"quota exhausted"}}`, "API Error: quota exhausted"},
		{"no candidates", `{"candidates":[]}`, MsgEmpty},
		{"missing parts", `{"candidates":[{"content":{}}]}`, MsgEmpty},
		{"blank text", textReply("   "), MsgEmpty},
		{"malformed json", `not json`, MsgUnexpected},
		{"concatenated parts", `{"candidates":[{"content":{"parts":[{"text":"a"},{"text":"b"}]}}]}`, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubGemini{respond: func(int, string) (int, string) {
				return http.StatusOK, tt.body
			}}
			client := newTestClient(t, stub, "", nil)

			assert.Equal(t, tt.want, client.Generate(context.Background(), models.AIKindDebug, "x"))
			assert.Equal(t, 1, stub.calls())
		})
	}
}

func TestGenerate_ExplainIsSanitized(t *testing.T) {
	stub := &stubGemini{respond: func(int, string) (int, string) {
		return http.StatusOK, textReply("**1.** does X\n- **2.** does Y\n3) does Z\n")
	}}
	client := newTestClient(t, stub, "", nil)

	got := client.Generate(context.Background(), models.AIKindExplain, "class A { void m(){ int x = 1; } }")

	assert.Equal(t, "1. does X\n2. does Y\n3. does Z", got)
}

func TestGenerate_FailureMessagesNotSanitized(t *testing.T) {
	stub := &stubGemini{respond: func(int, string) (int, string) {
		return http.StatusTooManyRequests, `{}`
	}}
	client := newTestClient(t, stub, "", nil)

	assert.Equal(t, MsgRateLimit, client.Generate(context.Background(), models.AIKindExplain, "x"))
}

func TestGenerate_RequestShape(t *testing.T) {
	stub := &stubGemini{respond: func(int, string) (int, string) {
		return http.StatusOK, textReply("ok")
	}}
	client := newTestClient(t, stub, "", nil)

	client.GenerateRequest(context.Background(), Request{Kind: models.AIKindDebug, Source: "int x;", Language: "Go"})

	require.Equal(t, 1, stub.calls())
	assert.Equal(t, testAPIKey, stub.keys[0])

	body := stub.bodies[0]
	contents := body["contents"].([]any)
	require.Len(t, contents, 1)
	first := contents[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
	text := first["parts"].([]any)[0].(map[string]any)["text"].(string)
	assert.True(t, strings.HasPrefix(text, "DEBUG (short):"))
	assert.Contains(t, text, "---CODE START (go)---\nint x;\n---CODE END---")

	gen := body["generationConfig"].(map[string]any)
	assert.InDelta(t, 0.2, gen["temperature"], 1e-6)
	assert.InDelta(t, 2048, gen["maxOutputTokens"], 0)
	assert.InDelta(t, 0.8, gen["topP"], 1e-6)
	assert.InDelta(t, 40, gen["topK"], 0)
}

func TestGenerate_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := srv.URL + "/v1beta/models/%s:generateContent"
	srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	client, err := NewClient(Config{APIKey: testAPIKey, Endpoint: endpoint}, zap.New(core))
	require.NoError(t, err)

	got := client.Generate(context.Background(), models.AIKindExplain, "x")

	assert.Equal(t, MsgTransport, got)
	for _, entry := range logs.All() {
		assert.NotContains(t, entry.Message, testAPIKey)
		for k, v := range entry.ContextMap() {
			assert.NotContains(t, fmt.Sprint(v), testAPIKey, "field %s leaked the API key", k)
		}
	}
}

func TestGenerate_LogsEachAttempt(t *testing.T) {
	stub := &stubGemini{respond: func(call int, _ string) (int, string) {
		if call == 0 {
			return http.StatusNotFound, `{}`
		}
		return http.StatusOK, textReply("ok")
	}}
	core, logs := observer.New(zapcore.InfoLevel)
	client := newTestClient(t, stub, "", zap.New(core))

	client.Generate(context.Background(), models.AIKindDebug, "x")

	failed := logs.FilterMessage("Model attempt failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, DefaultGeminiModels[0], failed[0].ContextMap()["model"])
	assert.Equal(t, int64(404), failed[0].ContextMap()["status"])
	assert.Len(t, logs.FilterMessage("Model attempt succeeded").All(), 1)
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := NewClient(Config{}, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfig))
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestNewClient_ReadsEnvironment(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("GEMINI_MODEL", "gemini-exp")

	client, err := NewClient(Config{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "gemini", client.Provider())
	candidates := client.Candidates()
	assert.Equal(t, "gemini-exp", candidates[0])
	assert.Len(t, candidates, len(DefaultGeminiModels)+1)
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(Config{Provider: "cohere", APIKey: "k"}, nil)
	assert.True(t, errors.Is(err, apperrors.ErrConfig))
}

func TestCandidateModels(t *testing.T) {
	assert.Equal(t, DefaultGeminiModels, CandidateModels("", DefaultGeminiModels))

	got := CandidateModels("gemini-1.5-pro", DefaultGeminiModels)
	assert.Equal(t, "gemini-1.5-pro", got[0])
	assert.Len(t, got, len(DefaultGeminiModels))
	assert.Equal(t, 1, countOf(got, "gemini-1.5-pro"))
}

func countOf(list []string, s string) int {
	n := 0
	for _, v := range list {
		if v == s {
			n++
		}
	}
	return n
}
