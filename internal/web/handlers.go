package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/JonMunkholm/agingmap/internal/core"
)

// healthResponse is the body of /healthz.
type healthResponse struct {
	Status  string             `json:"status"`
	Dataset core.SessionStatus `json:"dataset"`
}

// filterResponse is the body of /api/filter.
type filterResponse struct {
	Count int                 `json:"count"`
	IDs   []string            `json:"ids"`
	Stats core.AggregateStats `json:"stats"`
	View  core.View           `json:"view"`
}

type boundsResponse struct {
	BBox *core.BBox `json:"bbox"`
}

// handleHealth reports "ok" once a dataset is loaded, "degraded" when the
// last reload failed but an older dataset is still served, and "loading"
// (503) before the first successful load.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.session.Status()

	resp := healthResponse{Status: "ok", Dataset: st}
	status := http.StatusOK
	switch {
	case !s.session.Loaded():
		resp.Status = "loading"
		status = http.StatusServiceUnavailable
	case st.LastError != "":
		resp.Status = "degraded"
	}
	respondJSON(w, r, status, resp)
}

// handleFrontendConfig serves the browser map configuration as a script.
func (s *Server) handleFrontendConfig(w http.ResponseWriter, r *http.Request) {
	token, err := json.Marshal(s.cfg.Frontend.MapboxToken)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = fmt.Fprintf(w, "window.MAPBOX_TOKEN=%s;\n", token)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, nonNil(s.session.Dataset().Records))
}

// handleGetRecord looks up one record by its exact code.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := s.session.Dataset().Lookup(id)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %q", core.ErrLocalityNotFound, id), http.StatusNotFound)
		return
	}
	respondJSON(w, r, http.StatusOK, rec)
}

// handleDomain returns the slider bounds for the current dataset.
func (s *Server) handleDomain(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, core.DefaultFilterSpec(s.session.Dataset().Records))
}

func (s *Server) handleJurisdictions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, core.Jurisdictions(s.session.Dataset().Records))
}

func (s *Server) handleLocalities(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	respondJSON(w, r, http.StatusOK, nonNil(core.LocalitiesIn(s.session.Dataset().Records, name)))
}

// handleFilter returns the ids matching the filter, their aggregate stats and
// the side panel view.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	spec, selected, err := parseFilter(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	view, filtered := s.session.View(spec, selected)
	ids := make([]string, len(filtered))
	for i, rec := range filtered {
		ids[i] = rec.ID
	}

	respondJSON(w, r, http.StatusOK, filterResponse{
		Count: len(filtered),
		IDs:   ids,
		Stats: core.Aggregate(filtered),
		View:  view,
	})
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	spec, _, err := parseFilter(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	respondJSON(w, r, http.StatusOK, s.session.Aggregate(spec))
}

// handleBounds returns the box to fit the map to. When the filtered records
// carry no geometry the box of the whole dataset is used.
func (s *Server) handleBounds(w http.ResponseWriter, r *http.Request) {
	spec, _, err := parseFilter(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	b := core.Bounds(s.session.Filter(spec))
	if b == nil {
		b = core.Bounds(s.session.Dataset().Records)
	}
	respondJSON(w, r, http.StatusOK, boundsResponse{BBox: b})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	p, err := parseSearch(r.URL.Query(), s.cfg.Dataset.SearchLimit)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	hits := core.Search(s.session.Dataset().Records, p.Query, core.SearchOptions{
		Limit:         p.Limit,
		MinPopulation: s.session.MinPopulation(),
	})
	respondJSON(w, r, http.StatusOK, nonNil(hits))
}

func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	p, err := parseNearest(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	respondJSON(w, r, http.StatusOK, nonNil(core.Nearest(s.session.Dataset().Records, *p.Lon, *p.Lat, p.K)))
}

// handleReload reloads the dataset from its source. On failure the previous
// dataset keeps being served; a reload already running yields 409.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.session.TryReload(r.Context()); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	respondJSON(w, r, http.StatusOK, s.session.Status())
}

// nonNil keeps empty results encoding as [] rather than null.
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
