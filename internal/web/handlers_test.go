package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/justestif/go-wellness-mood/internal/checkins"
	"github.com/justestif/go-wellness-mood/internal/config"
	"github.com/justestif/go-wellness-mood/internal/pick"
	"github.com/justestif/go-wellness-mood/internal/pipeline"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer builds a server over a pipeline with no remote model.
func newTestServer(t *testing.T, allowFallback bool) *httptest.Server {
	t.Helper()

	logger := discardLogger()
	p := pipeline.New(
		pipeline.Config{ModelID: "gemini-test", Location: "asia-south1", AllowFallback: allowFallback},
		pipeline.WithPicker(pick.Fixed(0)),
		pipeline.WithLogger(logger),
	)
	svc := checkins.New(p, checkins.NewMemoryStore(), config.DefaultHelplines)
	srv := NewServer(ServerConfig{Logger: logger}, NewHandlers(p, svc, logger))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, true)

	resp, body := get(t, ts, "/health")
	if resp.StatusCode != http.StatusOK || body["status"] != "healthy" {
		t.Errorf("GET /health = %d %v", resp.StatusCode, body)
	}

	resp, body = get(t, ts, "/health/ml")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health/ml status = %d", resp.StatusCode)
	}
	if body["remote_model"] != false || body["allow_fallback"] != true || body["model"] != "gemini-test" {
		t.Errorf("GET /health/ml = %v", body)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy with fallback", body["status"])
	}

	_, body = get(t, newTestServer(t, false), "/health/ml")
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded without model or fallback", body["status"])
	}
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name          string
		allowFallback bool
		body          string
		wantStatus    int
		wantMood      string
		wantSafety    string
		wantError     string
	}{
		{
			name:          "fallback heuristic",
			allowFallback: true,
			body:          `{"text":"I feel so lonely tonight"}`,
			wantStatus:    http.StatusOK,
			wantMood:      "Sad",
			wantSafety:    "safe",
		},
		{
			name:          "urgent without fallback",
			allowFallback: false,
			body:          `{"text":"I want to end my life"}`,
			wantStatus:    http.StatusOK,
			wantMood:      "Urgent",
			wantSafety:    "flag",
		},
		{
			name:          "empty text",
			allowFallback: false,
			body:          `{"text":""}`,
			wantStatus:    http.StatusOK,
			wantMood:      "Neutral",
			wantSafety:    "safe",
		},
		{
			name:          "no model and no fallback",
			allowFallback: false,
			body:          `{"text":"a normal day"}`,
			wantStatus:    http.StatusServiceUnavailable,
			wantError:     pipeline.KindConfiguration,
		},
		{
			name:          "invalid json",
			allowFallback: true,
			body:          `{"text":`,
			wantStatus:    http.StatusBadRequest,
			wantError:     kindBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.allowFallback)
			resp, body := post(t, ts, "/analyze", tt.body)

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %v)", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantError != "" {
				if body["error"] != tt.wantError {
					t.Errorf("error = %v, want %q", body["error"], tt.wantError)
				}
				if _, ok := body["message"]; !ok {
					t.Error("error body has no message")
				}
				return
			}
			if body["mood_bucket"] != tt.wantMood {
				t.Errorf("mood_bucket = %v, want %q", body["mood_bucket"], tt.wantMood)
			}
			if body["safety_flag"] != tt.wantSafety {
				t.Errorf("safety_flag = %v, want %q", body["safety_flag"], tt.wantSafety)
			}
			if s, _ := body["playlist_url"].(string); !strings.HasPrefix(s, "https://") {
				t.Errorf("playlist_url = %v", body["playlist_url"])
			}
		})
	}
}

func TestAnalyzeBatch(t *testing.T) {
	ts := newTestServer(t, false)

	resp, body := post(t, ts, "/analyze/batch", `{"texts":["I want to die","just a day"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %v", resp.StatusCode, body)
	}

	results, _ := body["results"].([]any)
	if len(results) != 2 {
		t.Fatalf("results = %v, want 2 items", body["results"])
	}

	first := results[0].(map[string]any)
	if rec, ok := first["result"].(map[string]any); !ok || rec["mood_bucket"] != "Urgent" {
		t.Errorf("first result = %v, want Urgent record", first)
	}
	second := results[1].(map[string]any)
	if second["error"] != pipeline.KindConfiguration {
		t.Errorf("second result = %v, want configuration error", second)
	}
	if first["id"] == "" || first["id"] == second["id"] {
		t.Errorf("ids = %v, %v; want distinct ids", first["id"], second["id"])
	}
}

func TestAnalyzeBatch_TooMany(t *testing.T) {
	ts := newTestServer(t, true)

	texts := make([]string, MaxBatchSize+1)
	payload, _ := json.Marshal(map[string]any{"texts": texts})

	resp, body := post(t, ts, "/analyze/batch", string(payload))
	if resp.StatusCode != http.StatusBadRequest || body["error"] != kindBadRequest {
		t.Errorf("status = %d body = %v, want 400 bad_request", resp.StatusCode, body)
	}
}

func TestCheckinFlow(t *testing.T) {
	ts := newTestServer(t, true)

	resp, body := post(t, ts, "/api/checkin", `{"user_id":"u1","text":"so happy today","quick_emojis":["😀"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/checkin = %d %v", resp.StatusCode, body)
	}
	if body["mood"] != "happy" {
		t.Errorf("mood = %v, want happy", body["mood"])
	}
	if body["helplines"] != nil {
		t.Errorf("helplines = %v, want null for safe check-in", body["helplines"])
	}
	playlist, _ := body["playlist"].([]any)
	if len(playlist) != 1 {
		t.Errorf("playlist = %v, want one link", body["playlist"])
	}

	resp, body = post(t, ts, "/api/checkin", `{"user_id":"u1","text":"I want to hurt myself"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/checkin = %d %v", resp.StatusCode, body)
	}
	if body["safety_flag"] != "flag" || body["message"] != pipeline.CrisisMessage {
		t.Errorf("flagged check-in = %v", body)
	}
	helplines, _ := body["helplines"].([]any)
	if len(helplines) == 0 {
		t.Fatalf("helplines = %v, want entries", body["helplines"])
	}
	if h := helplines[0].(map[string]any); h["name"] == "" || h["number"] == "" {
		t.Errorf("helpline = %v, want name and number", h)
	}

	_, body = get(t, ts, "/api/checkins?userId=u1&limit=1")
	list, _ := body["checkins"].([]any)
	if len(list) != 1 {
		t.Fatalf("checkins = %v, want 1 item", body["checkins"])
	}
	if list[0].(map[string]any)["mood"] != "urgent" {
		t.Errorf("newest check-in = %v, want the urgent one", list[0])
	}

	id, _ := list[0].(map[string]any)["id"].(string)
	resp, body = get(t, ts, "/api/checkins/"+id)
	if resp.StatusCode != http.StatusOK || body["id"] != id {
		t.Errorf("GET /api/checkins/{id} = %d %v", resp.StatusCode, body)
	}
	resp, body = get(t, ts, "/api/checkins/not-a-uuid")
	if resp.StatusCode != http.StatusNotFound || body["error"] != kindNotFound {
		t.Errorf("GET unknown check-in = %d %v, want 404", resp.StatusCode, body)
	}

	_, body = get(t, ts, "/api/mood_trends?userId=u1")
	if body["period"] != "last100" {
		t.Errorf("period = %v", body["period"])
	}
	counts, _ := body["counts"].([]any)
	if len(counts) != 1 {
		t.Fatalf("counts = %v, want one day", body["counts"])
	}
	moods := counts[0].(map[string]any)["moods"].(map[string]any)
	if moods["happy"] != float64(1) || moods["urgent"] != float64(1) {
		t.Errorf("moods = %v", moods)
	}

	resp, body = get(t, ts, "/api/mood_phases?userId=u1")
	if resp.StatusCode != http.StatusOK || body["total"] != float64(2) {
		t.Errorf("GET /api/mood_phases = %d %v", resp.StatusCode, body)
	}
}

func TestCheckin_Validation(t *testing.T) {
	ts := newTestServer(t, true)

	resp, body := post(t, ts, "/api/checkin", `{"text":" x "}`)
	if resp.StatusCode != http.StatusBadRequest || body["error"] != kindBadRequest {
		t.Errorf("status = %d body = %v, want 400", resp.StatusCode, body)
	}

	resp, body = get(t, ts, "/api/checkins?limit=abc")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d body = %v, want 400 for bad limit", resp.StatusCode, body)
	}
}

func TestCheckins_DefaultUser(t *testing.T) {
	ts := newTestServer(t, true)

	post(t, ts, "/api/checkin", `{"text":"feeling glad"}`)

	_, body := get(t, ts, "/api/checkins")
	list, _ := body["checkins"].([]any)
	if len(list) != 1 || list[0].(map[string]any)["user_id"] != checkins.DemoUserID {
		t.Errorf("checkins = %v, want one demo_user entry", body["checkins"])
	}
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, true)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/analyze", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
