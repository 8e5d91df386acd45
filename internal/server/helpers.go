package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"

	"github.com/bobmcallan/capvault/internal/timeseries"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// TableResponse is the wire form of a balance matrix.
type TableResponse struct {
	Dates   []string    `json:"dates"`
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// SeriesResponse is the wire form of a single balance series.
type SeriesResponse struct {
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}

func tableResponse(m *timeseries.Matrix) *TableResponse {
	resp := &TableResponse{
		Dates:   make([]string, len(m.Dates)),
		Columns: m.Columns,
		Values:  m.Values,
	}
	for i, d := range m.Dates {
		resp.Dates[i] = d.Format("2006-01-02")
	}
	return resp
}

func seriesResponse(s *timeseries.Series) *SeriesResponse {
	resp := &SeriesResponse{
		Dates:  make([]string, len(s.Dates)),
		Values: s.Values,
	}
	for i, d := range s.Dates {
		resp.Dates[i] = d.Format("2006-01-02")
	}
	return resp
}

// seriesResponseSkipMissing renders a series without its NaN points. JSON
// has no representation for them, and derived series carry an undefined
// first sample.
func seriesResponseSkipMissing(s *timeseries.Series) *SeriesResponse {
	resp := &SeriesResponse{}
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		resp.Dates = append(resp.Dates, s.Dates[i].Format("2006-01-02"))
		resp.Values = append(resp.Values, v)
	}
	return resp
}
