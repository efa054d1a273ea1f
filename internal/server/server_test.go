package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/chaosgame/pkg/fractal"
	"github.com/matzehuels/chaosgame/pkg/pipeline"
)

func newTestServer(t *testing.T) (*httptest.Server, *pipeline.Runner) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(nil, nil, logger)
	runner.Generator = fractal.New(fractal.WithIterations(1000), fractal.WithSeed(3))
	ts := httptest.NewServer(New(runner, WithLogger(logger)).Handler())
	t.Cleanup(ts.Close)
	return ts, runner
}

func do(t *testing.T, method, url string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get(HeaderRequestID) == "" {
		t.Error("missing request ID header")
	}
	h := decode[healthResponse](t, resp)
	if h.Status != "ok" || h.Fractals == 0 {
		t.Errorf("health = %+v", h)
	}
}

func TestListAndGetFractal(t *testing.T) {
	ts, _ := newTestServer(t)

	list := decode[[]fractalSummary](t, do(t, http.MethodGet, ts.URL+"/fractals", nil))
	found := false
	for _, f := range list {
		if f.Name == "fern" {
			found = true
			if f.Transforms != 4 {
				t.Errorf("fern transforms = %d, want 4", f.Transforms)
			}
		}
	}
	if !found {
		t.Fatal("fern missing from list")
	}

	detail := decode[fractalDetail](t, do(t, http.MethodGet, ts.URL+"/fractals/fern", nil))
	if len(detail.Rows) != 4 || len(detail.Probabilities) != 4 {
		t.Errorf("detail = %+v", detail)
	}
	if detail.Cached {
		t.Error("fern should not be cached before a render")
	}
}

func TestErrorStatus(t *testing.T) {
	ts, _ := newTestServer(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown fractal", http.MethodGet, "/fractals/nope", "", http.StatusNotFound, "NOT_FOUND"},
		{"unknown render", http.MethodGet, "/fractals/nope/render", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad format", http.MethodGet, "/fractals/fern/render?format=gif", "", http.StatusBadRequest, "INVALID_FORMAT"},
		{"bad width", http.MethodGet, "/fractals/fern/render?width=wide", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad color", http.MethodGet, "/fractals/fern/render?color=green", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"NaN point size", http.MethodGet, "/fractals/fern/render?point_size=NaN", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"infinite point size", http.MethodGet, "/fractals/fern/render?point_size=Inf", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"NaN percentile", http.MethodGet, "/fractals/fern/render?percentile=NaN", "", http.StatusBadRequest, "INVALID_INPUT"},
		{"bad json", http.MethodPost, "/render", "{", http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown field", http.MethodPost, "/render", `{"nme":"x"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty request", http.MethodPost, "/render", `{}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad rows", http.MethodPost, "/render", `{"rows":[[1,2,3]]}`, http.StatusBadRequest, "INVALID_CONFIGURATION"},
		{"negative weight", http.MethodPost, "/render", `{"rows":[[1,2,3,4,5,6,-1]]}`, http.StatusBadRequest, "INVALID_CONFIGURATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			resp := do(t, tt.method, ts.URL+tt.path, body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			e := decode[errorResponse](t, resp)
			if e.Error != tt.code {
				t.Errorf("error = %q (%s), want %q", e.Error, e.Message, tt.code)
			}
		})
	}
}

func TestRenderNamed(t *testing.T) {
	ts, runner := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/fractals/sierpinski/render?format=png&width=64&height=32", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if resp.Header.Get(HeaderJobID) == "" {
		t.Error("missing job ID")
	}
	if got := resp.Header.Get(HeaderCache); got != "miss" {
		t.Errorf("first render cache = %q, want miss", got)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("png size = %v", b)
	}

	again := do(t, http.MethodGet, ts.URL+"/fractals/sierpinski/render", nil)
	if got := again.Header.Get(HeaderCache); got != "memory" {
		t.Errorf("second render cache = %q, want memory", got)
	}
	if got := again.Header.Get(HeaderPoints); got != "1000" {
		t.Errorf("points header = %q", got)
	}
	if _, ok := runner.Generator.Cached("sierpinski"); !ok {
		t.Error("named render should populate the result cache")
	}
}

func TestRenderPost(t *testing.T) {
	ts, runner := newTestServer(t)

	body := `{"rows":[[0.5,0,0,0,0.5,0,1],[0.5,0,0.5,0,0.5,0,1]],"render":{"color":"#ff0000"}}`
	resp := do(t, http.MethodPost, ts.URL+"/render", strings.NewReader(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(data, []byte("<svg")) {
		t.Errorf("body does not start with <svg: %.40s", data)
	}
	if !bytes.Contains(data, []byte("#ff0000")) {
		t.Error("color from body was not applied")
	}
	if runner.Generator.Len() != 0 {
		t.Error("anonymous request should not populate the result cache")
	}

	named := `{"name":"line","rows":[[0.5,0,0,0,0.5,0,1]],"formats":["json"]}`
	resp = do(t, http.MethodPost, ts.URL+"/render", strings.NewReader(named))
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if _, ok := runner.Generator.Cached("line"); !ok {
		t.Error("named request should populate the result cache")
	}
}

func TestRenderBodyTooLarge(t *testing.T) {
	ts, _ := newTestServer(t)
	big := `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	resp := do(t, http.MethodPost, ts.URL+"/render", strings.NewReader(big))
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestCacheEndpoints(t *testing.T) {
	ts, runner := newTestServer(t)
	ctx := context.Background()

	for _, name := range []string{"fern", "dragon"} {
		if _, err := runner.Execute(ctx, pipeline.Options{Name: name, NoRender: true}); err != nil {
			t.Fatal(err)
		}
	}

	status := decode[cacheStatus](t, do(t, http.MethodGet, ts.URL+"/cache", nil))
	if len(status.Names) != 2 || status.Stats.Misses != 2 {
		t.Errorf("cache status = %+v", status)
	}

	inv := decode[invalidateResponse](t, do(t, http.MethodDelete, ts.URL+"/cache/fern", nil))
	if !inv.Removed {
		t.Error("fern should have been removed")
	}
	inv = decode[invalidateResponse](t, do(t, http.MethodDelete, ts.URL+"/cache/fern", nil))
	if inv.Removed {
		t.Error("second invalidate should report nothing removed")
	}

	resp := do(t, http.MethodDelete, ts.URL+"/cache", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("purge status = %d", resp.StatusCode)
	}
	if runner.Generator.Len() != 0 {
		t.Error("purge should empty the result cache")
	}
}

func TestRunShutdown(t *testing.T) {
	_, runner := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(runner).Run(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil after cancel", err)
	}
}
