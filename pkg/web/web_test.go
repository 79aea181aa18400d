package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahoffer/cogito/pkg/query"
	"github.com/ahoffer/cogito/pkg/thinkmodel"
	"github.com/ahoffer/cogito/pkg/web"
)

type stubClient struct {
	selection []string
	solution  string
	direct    string
	connected bool
}

func (s *stubClient) GenerateText(context.Context, string, string) (string, error) {
	return s.direct, nil
}

func (s *stubClient) SelectModels(context.Context, string, []thinkmodel.Model) ([]string, error) {
	return s.selection, nil
}

func (s *stubClient) ProposeSolution(context.Context, string, []thinkmodel.Model) (string, error) {
	return s.solution, nil
}

func (s *stubClient) CheckConnectivity(context.Context) bool { return s.connected }

func newTestServer(t *testing.T, client *stubClient) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	model := "<id>swot_analysis</id>\n<type>solve</type>\n<field>business</field>\n<define>SWOT.</define>\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "swot.txt"), []byte(model), 0o600))

	lib := thinkmodel.NewLibrary(dir, nil)
	require.NoError(t, lib.Reload())

	proc := query.NewProcessor(lib, client, nil)
	srv := httptest.NewServer(web.New(proc, nil))
	t.Cleanup(srv.Close)

	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload)) //nolint:gosec // test server URL
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))

	return v
}

func TestHandleQuery(t *testing.T) {
	srv := newTestServer(t, &stubClient{selection: []string{"swot_analysis"}, solution: "Use SWOT."})

	resp := postJSON(t, srv.URL+"/api/query", map[string]string{"query": "pricing"})

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	assert.Equal(t, "Use SWOT.", body["solution"])
	assert.Equal(t, []any{"swot_analysis"}, body["selected_models"])
	assert.NotEmpty(t, body["id"])
	assert.Nil(t, body["error"])
}

func TestHandleQueryFallbackHasEmptyModelList(t *testing.T) {
	srv := newTestServer(t, &stubClient{direct: "direct answer"})

	resp := postJSON(t, srv.URL+"/api/query", map[string]string{"query": "hi"})

	body := decode[map[string]any](t, resp)
	assert.Equal(t, []any{}, body["selected_models"])
}

func TestHandleQueryRejectsEmptyQuery(t *testing.T) {
	srv := newTestServer(t, &stubClient{})

	resp := postJSON(t, srv.URL+"/api/query", map[string]string{"query": "   "})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleQueryRejectsBadJSON(t *testing.T) {
	srv := newTestServer(t, &stubClient{})

	resp, err := http.Post(srv.URL+"/api/query", "application/json", bytes.NewReader([]byte("{"))) //nolint:gosec // test server URL
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleModels(t *testing.T) {
	srv := newTestServer(t, &stubClient{})

	resp, err := http.Get(srv.URL + "/api/models") //nolint:gosec // test server URL
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	body := decode[map[string]any](t, resp)
	assert.InDelta(t, 1, body["count"], 0)
}

func TestHandleModelByID(t *testing.T) {
	srv := newTestServer(t, &stubClient{})

	resp, err := http.Get(srv.URL + "/api/models/swot_analysis") //nolint:gosec // test server URL
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	require.Equal(t, http.StatusOK, resp.StatusCode)

	m := decode[thinkmodel.Model](t, resp)
	assert.Equal(t, "swot_analysis", m.ID)
	assert.Equal(t, thinkmodel.KindSolve, m.Kind)
}

func TestHandleModelNotFound(t *testing.T) {
	srv := newTestServer(t, &stubClient{})

	resp, err := http.Get(srv.URL + "/api/models/nope") //nolint:gosec // test server URL
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t, &stubClient{connected: true})

	resp, err := http.Get(srv.URL + "/api/status") //nolint:gosec // test server URL
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	body := decode[map[string]any](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["llm_connected"])
}

func TestHandleReload(t *testing.T) {
	srv := newTestServer(t, &stubClient{})

	resp := postJSON(t, srv.URL+"/api/reload", struct{}{})

	require.Equal(t, http.StatusOK, resp.StatusCode)

	s := decode[thinkmodel.Summary](t, resp)
	assert.Equal(t, 1, s.TotalModels)
}

func TestWebSocketQuery(t *testing.T) {
	srv := newTestServer(t, &stubClient{selection: []string{"swot_analysis"}, solution: "ws answer"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):]+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"query": "pricing"}))

	var processing map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &processing))
	assert.Equal(t, "processing", processing["kind"])
	assert.NotEmpty(t, processing["id"])

	var result struct {
		Kind   string `json:"kind"`
		Result struct {
			Solution       string   `json:"solution"`
			SelectedModels []string `json:"selected_models"`
		} `json:"result"`
	}
	require.NoError(t, wsjson.Read(ctx, conn, &result))
	assert.Equal(t, "result", result.Kind)
	assert.Equal(t, "ws answer", result.Result.Solution)
	assert.Equal(t, []string{"swot_analysis"}, result.Result.SelectedModels)
}

func TestWebSocketEmptyQuery(t *testing.T) {
	srv := newTestServer(t, &stubClient{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):]+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"query": ""}))

	var event map[string]any
	require.NoError(t, wsjson.Read(ctx, conn, &event))
	assert.Equal(t, "error", event["kind"])
}
