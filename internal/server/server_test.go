package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"metaconscious/internal/config"
	"metaconscious/internal/llm"
	"metaconscious/internal/planner"
	"metaconscious/internal/store"
	"metaconscious/internal/types"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Complete(context.Context, string, string, llm.Options) (string, error) {
	return f.response, f.err
}

func newTestServer(t *testing.T, client llm.Client) (*Server, *store.Store) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "test.db")

	st, err := store.Open(cfg.Database, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	engine := planner.NewEngine(st, client, cfg.Planning, zap.NewNop())
	return New(cfg, st, engine, client, zap.NewNop()), st
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func initUser(t *testing.T, s *Server) {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/init", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequiresInit(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodGet, "/api/goals", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "User not initialized. Call /api/init first", decode(t, w)["error"])
}

func TestInitIsIdempotent(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodPost, "/api/init", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "User created", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "user", user["username"])

	w = doJSON(t, s, http.MethodPost, "/api/init", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User already initialized", decode(t, w)["message"])
}

func TestStatus(t *testing.T) {
	s, _ := newTestServer(t, nil)

	body := decode(t, doJSON(t, s, http.MethodGet, "/api/status", nil))
	assert.Equal(t, "operational", body["status"])
	assert.Nil(t, body["user"])
	assert.Equal(t, false, body["llm_configured"])

	initUser(t, s)
	body = decode(t, doJSON(t, s, http.MethodGet, "/api/status", nil))
	assert.NotNil(t, body["user"])
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/goals", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestGoalCRUDOverHTTP(t *testing.T) {
	s, _ := newTestServer(t, nil)
	initUser(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/goals", map[string]any{
		"title":              "Ship it",
		"priority":           5,
		"priority_reasoning": "deadline",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	goal := decode(t, w)["goal"].(map[string]any)
	id := goal["id"].(string)
	require.NotEmpty(t, id)

	w = doJSON(t, s, http.MethodGet, "/api/goals/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodPut, "/api/goals/"+id, map[string]any{
		"title":              "Ship it soon",
		"priority":           4,
		"priority_reasoning": "deadline moved",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodDelete, "/api/goals/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/goals/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateGoalValidation(t *testing.T) {
	s, _ := newTestServer(t, nil)
	initUser(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/goals", map[string]any{
		"title": "no priority",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPlanEmpty(t *testing.T) {
	s, _ := newTestServer(t, nil)
	initUser(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/plans?date=2025-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	_, present := body["plan"]
	assert.True(t, present)
	assert.Nil(t, body["plan"])
}

func TestGetPlanReturnsStoredPayload(t *testing.T) {
	s, st := newTestServer(t, nil)
	initUser(t, s)

	user, err := st.GetUser(context.Background())
	require.NoError(t, err)
	_, err = st.UpsertPlan(context.Background(), user.ID, "2025-03-10",
		`{"date": "2025-03-11", "reasoning": "stored reasoning", "warnings": []}`, "stored reasoning")
	require.NoError(t, err)

	w := doJSON(t, s, http.MethodGet, "/api/plans?date=2025-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	plan := decode(t, w)["plan"].(map[string]any)
	// The row's plan_date wins over the payload's date field.
	assert.Equal(t, "2025-03-10", plan["date"])
	assert.Equal(t, "stored reasoning", plan["reasoning"])
}

func TestGeneratePlanRequiresConfiguredLLM(t *testing.T) {
	s, _ := newTestServer(t, nil)
	initUser(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/generate-plan", map[string]any{"date": "2025-03-10"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "LLM not configured. Set LLM_API_KEY in .env file", decode(t, w)["error"])
}

func TestGeneratePlanSuccess(t *testing.T) {
	valid := `{
		"date": "2025-03-10",
		"reasoning": "front-load goal work before anything else",
		"priority_analysis": "single dominant goal this week",
		"time_blocks": [{"start_time": "09:00", "end_time": "10:00", "task_id": null,
			"activity": "deep work", "priority": 5, "reasoning": "focus window"}],
		"social_time_allocation": {"total_minutes": 60, "reasoning": "capped"},
		"goal_progress_assessment": [],
		"warnings": []
	}`
	s, _ := newTestServer(t, &fakeLLM{response: valid})
	initUser(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/generate-plan", map[string]any{"date": "2025-03-10"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Plan generated successfully", body["message"])
	plan := body["plan"].(map[string]any)
	assert.Equal(t, "2025-03-10", plan["date"])
}

func TestOverrideQuotaDenialShape(t *testing.T) {
	s, st := newTestServer(t, nil)
	initUser(t, s)

	user, err := st.GetUser(context.Background())
	require.NoError(t, err)
	p, err := st.UpsertPlan(context.Background(), user.ID, "2025-03-10", `{}`, "r")
	require.NoError(t, err)

	// Burn the whole weekly quota.
	for i := 0; i < 5; i++ {
		w := doJSON(t, s, http.MethodPut, "/api/override-plan/"+p.ID,
			map[string]any{"override_type": "manual", "reason": fmt.Sprintf("override %d", i)})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := doJSON(t, s, http.MethodPut, "/api/override-plan/"+p.ID,
		map[string]any{"override_type": "manual", "reason": "one too many"})
	require.Equal(t, http.StatusForbidden, w.Code)

	body := decode(t, w)
	assert.Contains(t, body["error"], "Weekly override limit reached (5)")
	overrides := body["overrides"].(map[string]any)
	assert.Equal(t, float64(5), overrides["count"])
	assert.Equal(t, float64(0), overrides["remaining"])
	assert.Equal(t, float64(5), overrides["limit"])
	assert.Equal(t, false, overrides["canOverride"])
}

func TestOverridePlanNotFound(t *testing.T) {
	s, _ := newTestServer(t, nil)
	initUser(t, s)

	w := doJSON(t, s, http.MethodPut, "/api/override-plan/missing-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOverridesStatusEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	initUser(t, s)

	w := doJSON(t, s, http.MethodGet, "/api/overrides", nil)
	require.Equal(t, http.StatusOK, w.Code)
	overrides := decode(t, w)["overrides"].(map[string]any)
	assert.Equal(t, float64(0), overrides["count"])
	assert.Equal(t, float64(5), overrides["remaining"])
	assert.Equal(t, true, overrides["canOverride"])
}

func TestRescheduleTask(t *testing.T) {
	valid := `{
		"date": "2025-03-19",
		"reasoning": "rebuilt after the task moved out a week",
		"priority_analysis": "deadline pressure relieved slightly",
		"time_blocks": [],
		"social_time_allocation": {"total_minutes": 30, "reasoning": "tight day"},
		"goal_progress_assessment": [],
		"warnings": []
	}`
	s, st := newTestServer(t, &fakeLLM{response: valid})
	initUser(t, s)

	user, err := st.GetUser(context.Background())
	require.NoError(t, err)
	task := &types.Task{UserID: user.ID, Title: "slipped", Priority: 3,
		PriorityReasoning: "r", DueDate: "2025-03-12"}
	require.NoError(t, st.CreateTask(context.Background(), task))

	w := doJSON(t, s, http.MethodPost, "/api/reschedule-task", map[string]any{
		"task_id": task.ID, "new_date": "2025-03-20", "reason": "conflict",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	moved, err := st.GetTask(context.Background(), user.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-20", moved.DueDate)
}

func TestChatEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &fakeLLM{response: "Focus on the thesis."})
	initUser(t, s)

	w := doJSON(t, s, http.MethodPost, "/api/chat", map[string]any{"message": "what now?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Focus on the thesis.", decode(t, w)["response"])

	w = doJSON(t, s, http.MethodPost, "/api/chat", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShutdown(t *testing.T) {
	s, _ := newTestServer(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
}
