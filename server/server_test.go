package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioseqlab/crisprflow/core"
	"github.com/bioseqlab/crisprflow/model"
	"github.com/bioseqlab/crisprflow/runner"
	"github.com/bioseqlab/crisprflow/session"
	"github.com/bioseqlab/crisprflow/workflow"
)

func newTestHandler(t *testing.T) (http.Handler, *session.InMemoryStore) {
	t.Helper()
	store := session.NewInMemoryStore()
	router := workflow.BuildRouter(workflow.NewToolkit(model.NewMockModel("test")))
	r := runner.New(router, func(o *runner.Options) { o.SessionStore = store })
	return NewHandler(r, store), store
}

func postMessage(t *testing.T, h http.Handler, sessionID, message string) (*httptest.ResponseRecorder, runner.TurnResult) {
	t.Helper()
	body := strings.NewReader(`{"message": ` + jsonString(message) + `}`)
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/messages", body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var result runner.TurnResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return rec, result
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestHandleMessage_IntakeMenu(t *testing.T) {
	h, _ := newTestHandler(t)

	rec, result := postMessage(t, h, "sess-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, runner.StatusAwaitingInput, result.Status)
	require.NotEmpty(t, result.Messages)
	assert.Contains(t, result.Messages[0], "Choose a workflow")
}

func TestHandleMessage_FullKnockoutEntry(t *testing.T) {
	h, store := newTestHandler(t)

	_, result := postMessage(t, h, "sess-1", "")
	require.Equal(t, runner.StatusAwaitingInput, result.Status)

	_, result = postMessage(t, h, "sess-1", "knockout")
	assert.Equal(t, "knockout", result.WorkflowID)
	assert.Equal(t, runner.StatusAwaitingInput, result.Status)

	_, result = postMessage(t, h, "sess-1", "TP53 human")
	assert.Equal(t, runner.StatusAwaitingInput, result.Status)

	state, err := store.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "TP53", state.TargetGene)
	assert.NotEmpty(t, state.Guides)
}

func TestHandleMessage_InvalidBody(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/sessions/s1/messages", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSession(t *testing.T) {
	h, _ := newTestHandler(t)

	postMessage(t, h, "sess-1", "")

	req := httptest.NewRequest(http.MethodGet, "/sessions/sess-1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var state core.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "sess-1", state.SessionID)
	assert.Equal(t, "intake", state.WorkflowID)
	assert.True(t, state.AwaitingInput)
}

func TestGetSession_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/sessions/ghost", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProtocol(t *testing.T) {
	h, store := newTestHandler(t)

	state := core.NewState("sess-1", "knockout")
	state.Modality = "knockout"
	state.TargetGene = "TP53"
	state.Species = "human"
	state.Delivery = core.DeliveryPlan{Method: "lipofection", Format: "plasmid"}
	require.NoError(t, store.Save(context.Background(), "sess-1", state))

	req := httptest.NewRequest(http.MethodGet, "/sessions/sess-1/protocol", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "markdown")
	assert.Contains(t, rec.Body.String(), "TP53")
}

func TestHealthz(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	postMessage(t, h, "sess-1", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "crisprflow_turns_total")
	assert.Contains(t, rec.Body.String(), `workflow="intake"`)
}

// brokenStore fails every Load so turns die before a workflow resolves.
type brokenStore struct {
	core.SessionStore
}

func (brokenStore) Load(context.Context, string) (*core.State, error) {
	return nil, errors.New("disk offline")
}

func TestMetricsLabelTurnsWithoutWorkflow(t *testing.T) {
	store := brokenStore{}
	router := workflow.BuildRouter(workflow.NewToolkit(model.NewMockModel("test")))
	r := runner.New(router, func(o *runner.Options) { o.SessionStore = store })
	h := NewHandler(r, store)

	rec, _ := postMessage(t, h, "sess-1", "hello")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRec := httptest.NewRecorder()
	h.ServeHTTP(metricsRec, req)

	assert.Contains(t, metricsRec.Body.String(), `workflow="unknown"`)
	assert.NotContains(t, metricsRec.Body.String(), `workflow=""`)
}
