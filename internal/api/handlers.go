package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/FocuswithJustin/writings/core/corpus"
	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/ref"
	"github.com/FocuswithJustin/writings/core/search"
	"github.com/FocuswithJustin/writings/core/writings"
	"github.com/FocuswithJustin/writings/internal/logging"
	"github.com/go-chi/chi/v5"
)

// Version is the API version reported by "/" and "/health".
const Version = "0.1.0"

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total"`
	Timestamp string `json:"timestamp"`
}

// HealthInfo is the body of GET /health.
type HealthInfo struct {
	Status  string         `json:"status"`
	Version string         `json:"version"`
	Uptime  string         `json:"uptime"`
	Records int            `json:"records"`
	Works   []corpus.Count `json:"works"`
	Clients int            `json:"websocket_clients"`
}

// CDBWork summarizes one work of The Call of the Divine Beloved.
type CDBWork struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Paragraphs int    `json:"paragraphs"`
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data})
}

// respondList writes a list with its length in the metadata.
func respondList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(APIResponse{
		Success: true,
		Data:    items,
		Meta: &APIMeta{
			Total:     len(items),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
	})
}

// errorStatus maps an error onto a status code and an error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, errors.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_PARAM"
	case errors.Is(err, errors.ErrUnsupported):
		return http.StatusNotImplemented, "NOT_IMPLEMENTED"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// apiError describes err for a client, without detail for internal errors.
func apiError(err error) *APIError {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		return &APIError{Code: code, Message: "internal error"}
	}
	return &APIError{Code: code, Message: err.Error()}
}

// respondErr writes err with its mapped status. Internal errors are logged
// and reported without detail.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, _ := errorStatus(err)
	if status == http.StatusInternalServerError {
		logging.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	e := apiError(err)
	respondError(w, status, e.Code, e.Message)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{
		"name":    "Writings API",
		"version": Version,
		"endpoints": []string{
			"GET /health",
			"GET /hidden-words[/{kind}[/{number}]]",
			"GET /prayers[/{kind}[/{section...}]]",
			"GET /gleanings[/{number}[/{paragraph}]]",
			"GET /meditations[/{number}[/{paragraph}]]",
			"GET /cdb[/{work}]",
			"GET /cdb/works",
			"GET /ref/{ref_id}",
			"GET /lookup/{reference}",
			"GET /search?q=&limit=&offset=",
			"GET /ws/search",
			"GET|POST /updates",
			"GET|DELETE /updates/{id}",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.corpus.Verify() != nil {
		status = "degraded"
	}
	respond(w, http.StatusOK, HealthInfo{
		Status:  status,
		Version: Version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Records: s.corpus.Len(),
		Works:   s.corpus.Counts(),
		Clients: s.hub.ClientCount(),
	})
}

func (s *Server) handleHiddenWords(w http.ResponseWriter, r *http.Request) {
	respondList(w, s.corpus.HiddenWords(""))
}

func (s *Server) handleHiddenWordsByKind(w http.ResponseWriter, r *http.Request) {
	kind, err := hiddenWordKind(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondList(w, s.corpus.HiddenWords(kind))
}

func (s *Server) handleHiddenWord(w http.ResponseWriter, r *http.Request) {
	kind, err := hiddenWordKind(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	number, err := parseCount("number", chi.URLParam(r, "number"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	hw, err := s.corpus.HiddenWord(kind, number)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, hw)
}

func (s *Server) handlePrayers(w http.ResponseWriter, r *http.Request) {
	respondList(w, s.corpus.Prayers("", nil))
}

func (s *Server) handlePrayersByKind(w http.ResponseWriter, r *http.Request) {
	kind, err := prayerKind(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondList(w, s.corpus.Prayers(kind, nil))
}

func (s *Server) handlePrayerSection(w http.ResponseWriter, r *http.Request) {
	kind, err := prayerKind(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondList(w, s.corpus.Prayers(kind, sectionPath(pathParam(r, "*"))))
}

func (s *Server) handleGleanings(w http.ResponseWriter, r *http.Request) {
	respondList(w, s.corpus.Gleanings(0))
}

func (s *Server) handleGleaningSelection(w http.ResponseWriter, r *http.Request) {
	number, err := parseNumber("number", chi.URLParam(r, "number"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondList(w, s.corpus.Gleanings(number))
}

func (s *Server) handleGleaning(w http.ResponseWriter, r *http.Request) {
	number, paragraph, err := unitParams(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	g, err := s.corpus.Gleaning(number, paragraph)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, g)
}

func (s *Server) handleMeditations(w http.ResponseWriter, r *http.Request) {
	respondList(w, s.corpus.Meditations(0))
}

func (s *Server) handleMeditationSelection(w http.ResponseWriter, r *http.Request) {
	number, err := parseNumber("number", chi.URLParam(r, "number"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondList(w, s.corpus.Meditations(number))
}

func (s *Server) handleMeditation(w http.ResponseWriter, r *http.Request) {
	number, paragraph, err := unitParams(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	m, err := s.corpus.Meditation(number, paragraph)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, m)
}

func unitParams(r *http.Request) (number, paragraph int, err error) {
	if number, err = parseNumber("number", chi.URLParam(r, "number")); err != nil {
		return 0, 0, err
	}
	paragraph, err = parseNumber("paragraph", chi.URLParam(r, "paragraph"))
	return number, paragraph, err
}

func (s *Server) handleCDB(w http.ResponseWriter, r *http.Request) {
	respondList(w, s.corpus.CDB(""))
}

func (s *Server) handleCDBWorks(w http.ResponseWriter, r *http.Request) {
	titles := s.corpus.CDBWorks()
	works := make([]CDBWork, len(titles))
	for i, title := range titles {
		works[i] = CDBWork{
			Title:      title,
			Slug:       corpus.Slug(title),
			Paragraphs: len(s.corpus.CDB(title)),
		}
	}
	respondList(w, works)
}

func (s *Server) handleCDBWork(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "work")
	paragraphs := s.corpus.CDB(name)
	if len(paragraphs) == 0 {
		respondErr(w, r, errors.NewNotFound("work", name))
		return
	}
	respondList(w, paragraphs)
}

func (s *Server) handleRef(w http.ResponseWriter, r *http.Request) {
	rec, err := s.corpus.Ref(pathParam(r, "refID"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, writings.Envelope{Writing: rec})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	parsed, err := ref.Parse(pathParam(r, "reference"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	records, err := s.corpus.Resolve(parsed)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if len(records) == 0 {
		respondErr(w, r, errors.NewNotFound("reference", parsed.String()))
		return
	}
	respondList(w, writings.Wrap(records))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := searchQuery(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	results, err := s.engine.Search(r.Context(), q)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, results)
}

func searchQuery(r *http.Request) (search.Query, error) {
	q := search.Query{Q: strings.TrimSpace(r.URL.Query().Get("q"))}
	var err error
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		return q, err
	}
	if q.Offset, err = queryInt(r, "offset"); err != nil {
		return q, err
	}
	return q, nil
}
