package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"sync"
	"testing"

	"homesolution/internal/app"
	"homesolution/internal/config"
	"homesolution/internal/domain"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T, journal string) (*testServer, func()) {
	t.Helper()
	a, err := app.Open(context.Background(), app.Options{Workspace: t.TempDir(), Journal: journal, SkipSeed: true})
	if err != nil {
		t.Fatalf("open app: %v", err)
	}
	cfg := Config{Engine: a.Engine, BasePath: "/v0"}
	if a.Log != nil {
		cfg.Events = a.Log
	}
	handler, err := New(cfg)
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			a.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	var env struct {
		Error apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error envelope: %v (%s)", err, string(data))
	}
	return env.Error.Code
}

func seedProject(t *testing.T, srv *testServer) {
	t.Helper()
	client := srv.Client()
	for _, w := range []map[string]any{
		{"kind": "hourly", "name": "Ana", "rate": 100},
		{"kind": "salaried", "name": "Beto", "rate": 1000, "category": "EXPERT"},
	} {
		res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/workers", w, nil)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("create worker: %d %s", res.StatusCode, string(data))
		}
	}
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects", map[string]any{
		"address":       "Av. Siempre Viva 742",
		"client":        "Homero",
		"start":         "2024-11-01",
		"estimated_end": "2024-11-05",
		"tasks": []map[string]any{
			{"title": "Paint", "description": "walls", "days": 2},
			{"title": "Wire", "description": "kitchen", "days": 1},
		},
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create project: %d %s", res.StatusCode, string(data))
	}
	var p domain.ProjectView
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("unmarshal project: %v", err)
	}
	if p.Number != 1 || p.Status != domain.StatusPending || len(p.Tasks) != 2 {
		t.Fatalf("unexpected project %+v", p)
	}
}

func TestProjectLifecycle(t *testing.T) {
	srv, cleanup := newTestServer(t, config.JournalSQLite)
	defer cleanup()
	client := srv.Client()
	seedProject(t, srv)

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/1/tasks/Paint/assign", map[string]any{}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("assign: %d %s", res.StatusCode, string(data))
	}
	var assigned AssignmentResponse
	_ = json.Unmarshal(data, &assigned)
	if assigned.WorkerID != 1 || assigned.Status != domain.StatusPending {
		t.Fatalf("unexpected assignment %+v", assigned)
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/1/tasks/Wire/assign", map[string]any{"strategy": "least-delay"}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("assign least-delay: %d %s", res.StatusCode, string(data))
	}
	_ = json.Unmarshal(data, &assigned)
	if assigned.WorkerID != 2 || assigned.Status != domain.StatusActive {
		t.Fatalf("unexpected assignment %+v", assigned)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/cost", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("cost: %d %s", res.StatusCode, string(data))
	}
	var cost CostResponse
	_ = json.Unmarshal(data, &cost)
	if math.Abs(cost.Total-(1600+1020)*1.35) > 1e-6 {
		t.Fatalf("unexpected total %v", cost.Total)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/1/tasks/Wire/delays", map[string]any{"days": 3.2}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("delay: %d %s", res.StatusCode, string(data))
	}
	var p domain.ProjectView
	_ = json.Unmarshal(data, &p)
	if p.ActualEnd != "2024-11-12" || !p.Late {
		t.Fatalf("unexpected project after delay %+v", p)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/1/finalize", map[string]any{"end_date": "2024-11-20"}, nil)
	if res.StatusCode != http.StatusUnprocessableEntity || errorCode(t, data) != "invariant_violation" {
		t.Fatalf("expected invariant violation, got %d %s", res.StatusCode, string(data))
	}
	for _, title := range []string{"Paint", "Wire"} {
		res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/1/tasks/"+title+"/finish", nil, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("finish %s: %d %s", title, res.StatusCode, string(data))
		}
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/1/finalize", map[string]any{"end_date": "2024-11-20"}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("finalize: %d %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/1/finalize", map[string]any{"end_date": "2024-11-21"}, nil)
	if res.StatusCode != http.StatusConflict || errorCode(t, data) != "conflict" {
		t.Fatalf("expected conflict on finalized project, got %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/projects?status=finalized", nil, nil)
	var listed []domain.ProjectView
	_ = json.Unmarshal(data, &listed)
	if res.StatusCode != http.StatusOK || len(listed) != 1 {
		t.Fatalf("list finalized: %d %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/events?project=1&limit=3", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("events: %d %s", res.StatusCode, string(data))
	}
	var evts paginatedEvents
	_ = json.Unmarshal(data, &evts)
	if len(evts.Items) != 3 || evts.Items[0].Type != "project.finalized" {
		t.Fatalf("unexpected events %+v", evts.Items)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/assignments?project=1", nil, nil)
	var rows []domain.Assignment
	_ = json.Unmarshal(data, &rows)
	if res.StatusCode != http.StatusOK || len(rows) != 2 {
		t.Fatalf("assignments: %d %s", res.StatusCode, string(data))
	}
}

func TestErrorMapping(t *testing.T) {
	srv, cleanup := newTestServer(t, config.JournalNone)
	defer cleanup()
	client := srv.Client()
	seedProject(t, srv)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown project", http.MethodGet, "/v0/projects/99", nil, http.StatusNotFound, "not_found"},
		{"unknown worker", http.MethodGet, "/v0/workers/42", nil, http.StatusNotFound, "not_found"},
		{"unknown task", http.MethodPost, "/v0/projects/1/tasks/Roof/assign", map[string]any{}, http.StatusNotFound, "not_found"},
		{"bad category", http.MethodPost, "/v0/workers", map[string]any{"kind": "salaried", "name": "x", "rate": 1, "category": "BOSS"}, http.StatusBadRequest, "bad_request"},
		{"bad kind", http.MethodPost, "/v0/workers", map[string]any{"kind": "intern", "name": "x", "rate": 1}, http.StatusBadRequest, "bad_request"},
		{"bad delay", http.MethodPost, "/v0/projects/1/tasks/Paint/delays", map[string]any{"days": 0}, http.StatusBadRequest, "bad_request"},
		{"bad date", http.MethodPost, "/v0/projects", map[string]any{"address": "a", "client": "b", "start": "01/11/2024", "estimated_end": "2024-11-05"}, http.StatusBadRequest, "bad_request"},
		{"reassign without target", http.MethodPost, "/v0/projects/1/tasks/Paint/reassign", map[string]any{}, http.StatusBadRequest, "bad_request"},
		{"reassign unassigned", http.MethodPost, "/v0/projects/1/tasks/Paint/reassign", map[string]any{"worker_id": 1}, http.StatusConflict, "conflict"},
		{"bad status filter", http.MethodGet, "/v0/projects?status=DONE", nil, http.StatusBadRequest, "bad_request"},
		{"unknown strategy", http.MethodPost, "/v0/projects/1/tasks/Paint/assign", map[string]any{"strategy": "bogus"}, http.StatusBadRequest, "bad_request"},
	}
	for _, tc := range cases {
		res, data := doJSON(t, client, tc.method, srv.URL+tc.path, tc.body, nil)
		if res.StatusCode != tc.status {
			t.Fatalf("%s: expected %d, got %d %s", tc.name, tc.status, res.StatusCode, string(data))
		}
		if code := errorCode(t, data); code != tc.code {
			t.Fatalf("%s: expected code %s, got %s", tc.name, tc.code, code)
		}
	}

	for _, title := range []string{"Paint", "Wire"} {
		if res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/1/tasks/"+title+"/assign", map[string]any{}, nil); res.StatusCode != http.StatusOK {
			t.Fatalf("assign %s: %d %s", title, res.StatusCode, string(data))
		}
	}
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/1/tasks", map[string]any{"title": "Air conditioning", "description": "unit", "days": 0.5}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("add task: %d %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/1/tasks/Air%20conditioning/assign", map[string]any{}, nil)
	if res.StatusCode != http.StatusConflict || errorCode(t, data) != "worker_unavailable" {
		t.Fatalf("expected worker_unavailable, got %d %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/1/tasks/Paint/reassign", map[string]any{"worker_id": 2}, nil)
	if res.StatusCode != http.StatusConflict || errorCode(t, data) != "worker_unavailable" {
		t.Fatalf("expected busy worker to be unavailable, got %d %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/projects/1/tasks?unassigned=true", nil, nil)
	var tasks []domain.TaskView
	_ = json.Unmarshal(data, &tasks)
	if res.StatusCode != http.StatusOK || len(tasks) != 1 || tasks[0].Title != "Air conditioning" {
		t.Fatalf("unassigned tasks: %d %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/workers/available", nil, nil)
	if res.StatusCode != http.StatusOK || string(bytes.TrimSpace(data)) != "[]" {
		t.Fatalf("available workers: %d %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/events", nil, nil)
	var evts paginatedEvents
	_ = json.Unmarshal(data, &evts)
	if res.StatusCode != http.StatusOK || len(evts.Items) != 0 {
		t.Fatalf("events without journal: %d %s", res.StatusCode, string(data))
	}
}

func TestOpenAPIAndHealth(t *testing.T) {
	srv, cleanup := newTestServer(t, config.JournalNone)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health: %d %s", res.StatusCode, string(data))
	}
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/openapi.json", nil, nil)
	if res.StatusCode != http.StatusOK || !bytes.Contains(data, []byte("/v0/projects/{number}/tasks/{title}/assign")) {
		t.Fatalf("openapi: %d", res.StatusCode)
	}
}

func TestTaskTitlesAreUnescapedOnce(t *testing.T) {
	srv, cleanup := newTestServer(t, config.JournalNone)
	defer cleanup()
	client := srv.Client()
	for _, name := range []string{"Ana", "Beto"} {
		if res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/workers", map[string]any{"kind": "hourly", "name": name, "rate": 100}, nil); res.StatusCode != http.StatusCreated {
			t.Fatalf("create worker: %d %s", res.StatusCode, string(data))
		}
	}
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects", map[string]any{
		"address": "Calle 1", "client": "Cliente", "start": "2024-11-01", "estimated_end": "2024-11-05",
		"tasks": []map[string]any{
			{"title": "a%20b", "description": "literal percent", "days": 1},
			{"title": "Paint walls", "description": "space", "days": 1},
		},
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create project: %d %s", res.StatusCode, string(data))
	}
	for _, seg := range []string{"a%2520b", "Paint%20walls"} {
		res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/1/tasks/"+seg+"/assign", map[string]any{}, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("assign %s: %d %s", seg, res.StatusCode, string(data))
		}
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/projects/1/tasks", nil, nil)
	var tasks []domain.TaskView
	if err := json.Unmarshal(data, &tasks); err != nil || res.StatusCode != http.StatusOK {
		t.Fatalf("list tasks: %d %s", res.StatusCode, string(data))
	}
	for _, task := range tasks {
		if task.WorkerID == nil {
			t.Fatalf("task %q left unassigned", task.Title)
		}
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/projects/1/tasks/a%20b/finish", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("a%%20b decodes to %q, which is not a task: %d %s", "a b", res.StatusCode, string(data))
	}
}

func TestOpenAPIConcurrentFirstRequests(t *testing.T) {
	srv, cleanup := newTestServer(t, config.JournalNone)
	defer cleanup()
	const n = 8
	bodies := make(chan []byte, n)
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := srv.Client().Get(srv.URL + "/v0/openapi.json")
			if err != nil {
				errs <- err
				return
			}
			defer res.Body.Close()
			data, err := io.ReadAll(res.Body)
			if err != nil {
				errs <- err
				return
			}
			if res.StatusCode != http.StatusOK {
				errs <- fmt.Errorf("status %d", res.StatusCode)
				return
			}
			bodies <- data
		}()
	}
	wg.Wait()
	close(errs)
	close(bodies)
	for err := range errs {
		t.Fatalf("openapi: %v", err)
	}
	var first []byte
	for body := range bodies {
		if first == nil {
			first = body
			continue
		}
		if !bytes.Equal(first, body) {
			t.Fatalf("openapi documents differ between requests")
		}
	}
	if !bytes.Contains(first, []byte(`"default"`)) {
		t.Fatalf("expected default error responses in document")
	}
}
