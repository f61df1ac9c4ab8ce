package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"finshorts/config"
	"finshorts/deduplication"
	"finshorts/logging"
	"finshorts/orchestrator"
	"finshorts/types"
	"finshorts/workitems"

	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeRunner struct {
	busy  bool
	calls int
}

func (f *fakeRunner) Start(context.Context) (string, error) {
	f.calls++
	if f.busy {
		return "", orchestrator.ErrRunInProgress
	}
	return "run-1", nil
}

type fakeSubmitter struct{ seen map[string]bool }

func (f *fakeSubmitter) Submit(_ context.Context, n *types.NewsItem) (*types.WorkItem, bool, error) {
	if f.seen[n.Title] {
		return nil, false, nil
	}
	f.seen[n.Title] = true
	n.ContentHash = types.HashString(n.Title)
	return types.NewWorkItem(n, time.Now()), true, nil
}

type fixture struct {
	router *gin.Engine
	runner *fakeRunner
	store  *workitems.Store
	state  *orchestrator.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store := workitems.NewStore(filepath.Join(dir, "workitems"))
	uploads := deduplication.NewFileStore(filepath.Join(dir, config.UploadRecordFile))
	if _, err := uploads.Add(context.Background(), "fp1", map[string]any{"video_id": "v1"}); err != nil {
		t.Fatal(err)
	}
	f := &fixture{runner: &fakeRunner{}, store: store, state: orchestrator.NewManager()}
	f.router = NewRouter(Deps{
		Runner:  f.runner,
		Submit:  &fakeSubmitter{seen: map[string]bool{}},
		Store:   store,
		Uploads: uploads,
		State:   f.state,
		Logger:  logging.Discard(),
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func seed(t *testing.T, store *workitems.Store, title string, stage types.Stage) *types.WorkItem {
	t.Helper()
	item := types.NewWorkItem(&types.NewsItem{Title: title, ContentHash: types.HashString(title)}, time.Now())
	item.Stage = stage
	if err := store.Save(item); err != nil {
		t.Fatal(err)
	}
	return item
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec, body := f.do(t, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", rec.Code, body)
	}
}

func TestWorkItemRoutes(t *testing.T) {
	f := newFixture(t)
	a := seed(t, f.store, "Fed holds", types.StageScripted)
	seed(t, f.store, "Oil jumps", types.StageIngested)

	rec, body := f.do(t, http.MethodGet, "/api/workitems", nil)
	if rec.Code != http.StatusOK || body["count"] != float64(2) {
		t.Fatalf("list = %d %v", rec.Code, body)
	}

	rec, body = f.do(t, http.MethodGet, "/api/workitems?stage=scripted", nil)
	if rec.Code != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("filtered list = %d %v", rec.Code, body)
	}

	rec, _ = f.do(t, http.MethodGet, "/api/workitems?stage=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad stage = %d", rec.Code)
	}

	rec, body = f.do(t, http.MethodGet, "/api/workitems/"+a.ID, nil)
	if rec.Code != http.StatusOK || body["id"] != a.ID {
		t.Fatalf("get = %d %v", rec.Code, body)
	}

	rec, _ = f.do(t, http.MethodGet, "/api/workitems/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing = %d", rec.Code)
	}
}

func TestPipelineRun(t *testing.T) {
	f := newFixture(t)
	rec, body := f.do(t, http.MethodPost, "/api/pipeline/run", nil)
	if rec.Code != http.StatusAccepted || body["run_id"] != "run-1" {
		t.Fatalf("run = %d %v", rec.Code, body)
	}

	f.runner.busy = true
	rec, _ = f.do(t, http.MethodPost, "/api/pipeline/run", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("busy run = %d, want 409", rec.Code)
	}
}

func TestPipelineLast(t *testing.T) {
	f := newFixture(t)
	rec, _ := f.do(t, http.MethodGet, "/api/pipeline/last", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("last before any run = %d", rec.Code)
	}

	f.state.Start("r1")
	f.state.Finish(&orchestrator.RunResult{RunID: "r1", Published: 2}, nil)
	rec, body := f.do(t, http.MethodGet, "/api/pipeline/last", nil)
	if rec.Code != http.StatusOK || body["run_id"] != "r1" || body["published"] != float64(2) {
		t.Fatalf("last = %d %v", rec.Code, body)
	}
}

func TestUploads(t *testing.T) {
	f := newFixture(t)
	rec, body := f.do(t, http.MethodGet, "/api/uploads", nil)
	if rec.Code != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("uploads = %d %v", rec.Code, body)
	}
}

func TestSubmitNews(t *testing.T) {
	f := newFixture(t)
	req := map[string]string{"title": "Bitcoin tops 100k", "summary": "Crypto markets rallied sharply overnight on ETF inflows."}

	rec, body := f.do(t, http.MethodPost, "/api/news", req)
	if rec.Code != http.StatusCreated || body["created"] != true {
		t.Fatalf("submit = %d %v", rec.Code, body)
	}
	rec, body = f.do(t, http.MethodPost, "/api/news", req)
	if rec.Code != http.StatusOK || body["created"] != false {
		t.Fatalf("resubmit = %d %v", rec.Code, body)
	}
	rec, _ = f.do(t, http.MethodPost, "/api/news", map[string]string{"title": "no summary"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid submit = %d", rec.Code)
	}
}
