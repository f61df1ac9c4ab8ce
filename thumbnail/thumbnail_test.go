package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"finshorts/common"
	"finshorts/config"
	"finshorts/logging"
	"finshorts/types"
)

func newGenerator(images *ImageClient) *Generator {
	return &Generator{
		Images:  images,
		Width:   320,
		Height:  180,
		Quality: 90,
		Retry:   common.RetryPolicy{MaxAttempts: 2}.NoWait(),
		Logger:  logging.Discard(),
	}
}

func pathIn(dir string) func(string) string {
	return func(ext string) string { return filepath.Join(dir, "w1."+ext) }
}

func TestGenerateFromBase64(t *testing.T) {
	png := []byte("\x89PNG fake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/images/generations" || r.Header.Get("Authorization") != "Bearer k" {
			http.Error(w, "nope", http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, `{"data":[{"b64_json":%q}]}`, base64.StdEncoding.EncodeToString(png))
	}))
	defer srv.Close()

	dir := t.TempDir()
	g := newGenerator(NewImageClient(config.Thumbnail{BaseURL: srv.URL, Model: "m", Size: "1792x1024"}, "k"))
	path, err := g.Generate(context.Background(), &types.WorkItem{ID: "w1", Title: "Gold hits record"}, pathIn(dir))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if filepath.Ext(path) != ".png" {
		t.Fatalf("path = %s", path)
	}
	if got, _ := os.ReadFile(path); !bytes.Equal(got, png) {
		t.Fatalf("content = %q", got)
	}
}

func TestGenerateFromURL(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/img.png" {
			w.Write([]byte("remote-png"))
			return
		}
		fmt.Fprintf(w, `{"data":[{"url":"%s/img.png"}]}`, srv.URL)
	}))
	defer srv.Close()

	g := newGenerator(NewImageClient(config.Thumbnail{BaseURL: srv.URL}, "k"))
	path, err := g.Generate(context.Background(), &types.WorkItem{ID: "w1"}, pathIn(t.TempDir()))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got, _ := os.ReadFile(path); string(got) != "remote-png" {
		t.Fatalf("content = %q", got)
	}
}

func TestGenerateFallsBackToCard(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "busy", http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	g := newGenerator(NewImageClient(config.Thumbnail{BaseURL: srv.URL}, "k"))
	path, err := g.Generate(context.Background(), &types.WorkItem{ID: "w1", Keywords: []string{"oil"}}, pathIn(dir))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if calls != 2 || filepath.Ext(path) != ".jpg" {
		t.Fatalf("calls=%d path=%s", calls, path)
	}
	f, _ := os.Open(path)
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("decoding card: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 180 {
		t.Fatalf("bounds = %v", b)
	}
}

func TestGenerateWithoutKeyRendersCard(t *testing.T) {
	g := newGenerator(nil)
	path, err := g.Generate(context.Background(), &types.WorkItem{ID: "w1"}, pathIn(t.TempDir()))
	if err != nil || filepath.Ext(path) != ".jpg" {
		t.Fatalf("Generate = %s, %v", path, err)
	}
}

func TestKeywordColorIsStable(t *testing.T) {
	a := KeywordColor([]string{"Fed", "rates"})
	if b := KeywordColor([]string{"fed", "RATES"}); a != b {
		t.Fatalf("colour depends on case: %v vs %v", a, b)
	}
	if a.A != 255 {
		t.Fatalf("alpha = %d", a.A)
	}
}
