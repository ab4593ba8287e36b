package server

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/render"

	"github.com/pauloqxm/voce-denuncia/models"
	"github.com/pauloqxm/voce-denuncia/services"
	"github.com/pauloqxm/voce-denuncia/storage"
)

var templateFuncs = template.FuncMap{
	"join": strings.Join,
	"displayTime": func(t time.Time) string {
		return t.Local().Format(services.DisplayDateLayout)
	},
}

type errorBody struct {
	Kind    string   `json:"kind"`
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

func describeError(err error) *errorBody {
	if err == nil {
		return nil
	}
	body := &errorBody{Kind: "internal", Error: err.Error()}
	if ie, ok := services.AsIngestionError(err); ok {
		body.Kind = string(ie.Kind)
		body.Missing = ie.Missing
	}
	return body
}

type marker struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup string  `json:"popup"`
}

type dashboardPage struct {
	Selection     models.Selection
	Types         []string
	Neighborhoods []string
	Records       []*models.ComplaintRecord
	Center        *models.Point
	Markers       template.JS
	MarkerCount   int
	Loaded        bool
	LoadedAt      time.Time
	WarningCount  int
	Error         *errorBody
}

// selectionFrom reads tipo and bairro from the query string or form.
// Missing values select everything.
func selectionFrom(values url.Values) models.Selection {
	sel := models.Selection{
		Type:         strings.TrimSpace(values.Get("tipo")),
		Neighborhood: strings.TrimSpace(values.Get("bairro")),
	}
	if sel.Type == "" {
		sel.Type = services.AllOption
	}
	if sel.Neighborhood == "" {
		sel.Neighborhood = services.AllOption
	}
	return sel
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	sel := selectionFrom(r.URL.Query())
	filtered := services.Filter(snap.Records, sel)
	view := services.BuildMapView(filtered)

	markers := make([]marker, 0, len(view.Markers))
	var popup bytes.Buffer
	for _, rec := range view.Markers {
		popup.Reset()
		if err := s.pages.ExecuteTemplate(&popup, "popup", rec); err != nil {
			s.logger.Error("[server] Render popup for row %d: %v", rec.Row, err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		markers = append(markers, marker{Lat: *rec.Latitude, Lon: *rec.Longitude, Popup: popup.String()})
	}
	markersJSON, err := json.Marshal(markers)
	if err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	page := dashboardPage{
		Selection:     sel,
		Types:         snap.Types,
		Neighborhoods: snap.Neighborhoods,
		Records:       filtered,
		Center:        view.Center,
		Markers:       template.JS(markersJSON),
		MarkerCount:   len(markers),
		Loaded:        snap.Loaded(),
		LoadedAt:      snap.LoadedAt,
		WarningCount:  len(snap.Warnings),
		Error:         describeError(snap.LastError),
	}

	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, "dashboard", page); err != nil {
		s.logger.Error("[server] Render dashboard: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// handleDashboardReload reloads and sends the browser back to the same
// selection. A failure shows up in the dashboard banner.
func (s *Server) handleDashboardReload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	sel := selectionFrom(r.PostForm)

	if _, err := s.store.Reload(r.Context()); err != nil {
		s.logger.Warn("[server] Reload from dashboard failed: %v", err)
	}

	q := url.Values{}
	q.Set("tipo", sel.Type)
	q.Set("bairro", sel.Neighborhood)
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}

type complaintsResponse struct {
	SnapshotID string                    `json:"snapshot_id,omitempty"`
	Selection  models.Selection          `json:"selection"`
	Count      int                       `json:"count"`
	Center     *models.Point             `json:"center"`
	Records    []*models.ComplaintRecord `json:"records"`
}

func (s *Server) handleComplaints(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	sel := selectionFrom(r.URL.Query())
	filtered := services.Filter(snap.Records, sel)

	resp := complaintsResponse{
		Selection: sel,
		Count:     len(filtered),
		Records:   filtered,
	}
	if snap.Loaded() {
		resp.SnapshotID = snap.ID.String()
	}
	if center, ok := services.MapCenter(filtered); ok {
		resp.Center = &center
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	render.JSON(w, r, map[string][]string{
		"tipos":   snap.Types,
		"bairros": snap.Neighborhoods,
	})
}

func (s *Server) handleWarnings(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	warnings := snap.Warnings
	if warnings == nil {
		warnings = []models.FieldWarning{}
	}
	render.JSON(w, r, map[string]any{
		"count":    len(warnings),
		"warnings": warnings,
	})
}

type statusResponse struct {
	Loaded      bool       `json:"loaded"`
	SnapshotID  string     `json:"snapshot_id,omitempty"`
	LoadedAt    *time.Time `json:"loaded_at,omitempty"`
	LastAttempt *time.Time `json:"last_attempt,omitempty"`
	Records     int        `json:"records"`
	Mapped      int        `json:"mapped"`
	Warnings    int        `json:"warnings"`
	LastError   *errorBody `json:"last_error,omitempty"`
}

func newStatus(snap *services.Snapshot) statusResponse {
	st := statusResponse{
		Loaded:    snap.Loaded(),
		Records:   len(snap.Records),
		Warnings:  len(snap.Warnings),
		LastError: describeError(snap.LastError),
	}
	for _, rec := range snap.Records {
		if rec.HasLocation() {
			st.Mapped++
		}
	}
	if st.Loaded {
		st.SnapshotID = snap.ID.String()
		loadedAt := snap.LoadedAt
		st.LoadedAt = &loadedAt
	}
	if !snap.LastAttempt.IsZero() {
		last := snap.LastAttempt
		st.LastAttempt = &last
	}
	return st
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, newStatus(s.store.Current()))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Reload(r.Context())
	if err != nil {
		s.logger.Warn("[server] Reload failed: %v", err)
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, describeError(err))
		return
	}
	render.JSON(w, r, newStatus(snap))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	filtered := services.Filter(snap.Records, selectionFrom(r.URL.Query()))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="denuncias.csv"`)

	cw, err := storage.NewCSVWriter(w)
	if err != nil {
		s.logger.Error("[server] CSV export: %v", err)
		return
	}
	if err := cw.Write(filtered); err != nil {
		s.logger.Error("[server] CSV export: %v", err)
	}
	_ = cw.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}
