package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/chaosgame/pkg/buildinfo"
	errs "github.com/matzehuels/chaosgame/pkg/errors"
	"github.com/matzehuels/chaosgame/pkg/fractal"
	"github.com/matzehuels/chaosgame/pkg/pipeline"
	"github.com/matzehuels/chaosgame/pkg/render"
)

// Response headers set on rendered artifacts.
const (
	HeaderJobID  = "X-Job-ID"
	HeaderPoints = "X-Points"
	HeaderCache  = "X-Cache"
)

type healthResponse struct {
	Status   string         `json:"status"`
	Build    buildinfo.Info `json:"build"`
	Fractals int            `json:"fractals"`
	Cached   int            `json:"cached"`
}

type fractalSummary struct {
	Name       string `json:"name"`
	Transforms int    `json:"transforms"`
}

type fractalDetail struct {
	Name          string      `json:"name"`
	Rows          [][]float64 `json:"rows"`
	Probabilities []float64   `json:"probabilities"`
	Degenerate    bool        `json:"degenerate"`
	Cached        bool        `json:"cached"`
}

type cacheStatus struct {
	Names []string      `json:"names"`
	Stats fractal.Stats `json:"stats"`
}

type invalidateResponse struct {
	Name    string `json:"name"`
	Removed bool   `json:"removed"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Build:    buildinfo.Get(),
		Fractals: s.runner.Library.Len(),
		Cached:   s.runner.Generator.Len(),
	})
}

func (s *Server) handleListFractals(w http.ResponseWriter, r *http.Request) {
	entries := s.runner.Library.Entries()
	out := make([]fractalSummary, len(entries))
	for i, e := range entries {
		out[i] = fractalSummary{Name: e.Name, Transforms: len(e.Rows)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetFractal(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entry, err := s.runner.Library.Lookup(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	set, err := entry.TransformSet()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_, cached := s.runner.Generator.Cached(name)
	writeJSON(w, http.StatusOK, fractalDetail{
		Name:          entry.Name,
		Rows:          entry.Rows,
		Probabilities: set.Probabilities(),
		Degenerate:    set.IsDegenerate(),
		Cached:        cached,
	})
}

func (s *Server) handleRenderNamed(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	ro, err := renderOptions(s.defaults, q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.serveRender(w, r, pipeline.Options{
		Name:    name,
		Formats: []string{formatParam(q, nil)},
		Render:  ro,
		Refresh: q.Get("refresh") == "1",
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error:   string(errs.ErrCodeInvalidInput),
				Message: "request body too large",
			})
			return
		}
		s.writeError(w, r, errs.Wrap(errs.ErrCodeInvalidInput, err, "decode request body"))
		return
	}

	q := r.URL.Query()
	base := opts.Render
	if base == (render.Options{}) {
		base = s.defaults
	}
	ro, err := renderOptions(base, q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Render = ro
	opts.Formats = []string{formatParam(q, opts.Formats)}
	opts.NoRender = false
	if q.Get("refresh") == "1" {
		opts.Refresh = true
	}
	s.serveRender(w, r, opts)
}

// serveRender runs opts, which must request exactly one format, and writes
// the artifact.
func (s *Server) serveRender(w http.ResponseWriter, r *http.Request, opts pipeline.Options) {
	f, err := render.ParseFormat(opts.Formats[0])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Logger = s.requestLog(r)

	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", f.ContentType())
	h.Set(HeaderJobID, result.ID)
	h.Set(HeaderPoints, strconv.Itoa(result.Stats.Points))
	h.Set(HeaderCache, cacheHeader(result.CacheInfo))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[f])
}

func (s *Server) handleCacheStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cacheStatus{
		Names: s.runner.Generator.Names(),
		Stats: s.runner.Generator.Stats(),
	})
}

func (s *Server) handlePurgeCache(w http.ResponseWriter, r *http.Request) {
	s.runner.Generator.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	name, err := nameParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	removed := s.runner.Invalidate(name)
	s.requestLog(r).Debug("invalidated", "name", name, "removed", removed)
	writeJSON(w, http.StatusOK, invalidateResponse{Name: name, Removed: removed})
}

// nameParam returns the unescaped {name} path segment.
func nameParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "name")
	name, err := url.PathUnescape(raw)
	if err != nil {
		name = raw
	}
	if err := errs.ValidateFractalName(name); err != nil {
		return "", err
	}
	return name, nil
}

// formatParam picks the format query parameter, then the first body
// format, then the default.
func formatParam(q url.Values, body []string) string {
	if f := q.Get("format"); f != "" {
		return f
	}
	if len(body) > 0 {
		return body[0]
	}
	return string(pipeline.DefaultFormat)
}

// renderOptions overrides base with the render query parameters.
func renderOptions(base render.Options, q url.Values) (render.Options, error) {
	o := base
	ints := []struct {
		key string
		dst *int
	}{
		{"width", &o.Width},
		{"height", &o.Height},
		{"margin", &o.Margin},
	}
	for _, p := range ints {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return o, errs.New(errs.ErrCodeInvalidInput, "%s: not an integer: %q", p.key, v)
		}
		*p.dst = n
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"point_size", &o.PointSize},
		{"percentile", &o.Percentile},
	}
	for _, p := range floats {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return o, errs.New(errs.ErrCodeInvalidInput, "%s: not a number: %q", p.key, v)
		}
		*p.dst = f
	}

	if v := q.Get("color"); v != "" {
		o.Color = v
	}
	if v := q.Get("background"); v != "" {
		o.Background = v
	}
	return o, nil
}

func cacheHeader(info pipeline.CacheInfo) string {
	switch {
	case info.MemoryHit:
		return "memory"
	case info.StoredHit:
		return "stored"
	default:
		return "miss"
	}
}
