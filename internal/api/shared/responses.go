package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/todo-api/internal/store"
)

// Envelope is the uniform response body: every endpoint reports a status
// label plus a human-readable message, with the payload under data.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// Response status labels
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// PaginationLinks holds the navigation URLs for a paginated collection.
// Prev and First are null on the first page; Next is null on the last.
type PaginationLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// PaginationMeta holds the counters for a paginated collection.
// From and To are zero when the page is empty.
type PaginationMeta struct {
	CurrentPage int    `json:"current_page"`
	From        int    `json:"from"`
	LastPage    int    `json:"last_page"`
	Path        string `json:"path"`
	PerPage     int    `json:"per_page"`
	To          int    `json:"to"`
	Total       int    `json:"total"`
}

// ListEnvelope is the response body for paginated collections: the standard
// envelope plus navigation links and counters.
type ListEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    interface{}     `json:"data"`
	Links   PaginationLinks `json:"links"`
	Meta    PaginationMeta  `json:"meta"`
}

// RespondWithJSON writes a JSON response with the given status code and body.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithSuccess writes a success envelope with the given payload.
func RespondWithSuccess(w http.ResponseWriter, r *http.Request, status int, message string, data interface{}) {
	RespondWithJSON(w, r, status, Envelope{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// RespondWithError writes an error envelope with the given message.
// It also sets the TraceID from the request context if available.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	traceID := GetTraceID(r.Context())

	slog.Debug("sending error response",
		"status_code", status,
		"message", message,
		"trace_id", traceID,
		"path", r.URL.Path,
		"method", r.Method)

	RespondWithJSON(w, r, status, Envelope{
		Status:  StatusError,
		Message: message,
		TraceID: traceID,
	})
}

// RespondWithErrorAndLog writes a sanitized error envelope and logs the full
// error separately. Server errors log at ERROR level, client errors at DEBUG.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
) {
	traceID := GetTraceID(r.Context())

	logAttrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("path", r.URL.Path),
		slog.String("method", r.Method),
		slog.Int("status_code", status),
		slog.String("user_message", userMessage),
	}
	if err != nil {
		logAttrs = append(logAttrs,
			slog.String("error", err.Error()),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}

	logLevel := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		logLevel = slog.LevelError
	}
	slog.LogAttrs(r.Context(), logLevel, "API error response", logAttrs...)

	RespondWithJSON(w, r, status, Envelope{
		Status:  StatusError,
		Message: userMessage,
		TraceID: traceID,
	})
}

// RespondWithPage writes a success envelope for one page of results,
// deriving the navigation links from the request path and query.
func RespondWithPage[T any](
	w http.ResponseWriter,
	r *http.Request,
	message string,
	page *store.Page[T],
) {
	path := requestPath(r)

	RespondWithJSON(w, r, http.StatusOK, ListEnvelope{
		Status:  StatusSuccess,
		Message: message,
		Data:    page.Items,
		Links:   BuildPaginationLinks(r, page.Page, page.LastPage()),
		Meta: PaginationMeta{
			CurrentPage: page.Page,
			From:        page.From(),
			LastPage:    page.LastPage(),
			Path:        path,
			PerPage:     page.PerPage,
			To:          page.To(),
			Total:       page.Total,
		},
	})
}

// BuildPaginationLinks derives first/last/prev/next URLs from the request,
// preserving every query parameter except the page number.
func BuildPaginationLinks(r *http.Request, current, last int) PaginationLinks {
	links := PaginationLinks{
		First: pageURL(r, 1),
		Last:  pageURL(r, last),
	}
	if current > 1 {
		prev := pageURL(r, current-1)
		links.Prev = &prev
	}
	if current < last {
		next := pageURL(r, current+1)
		links.Next = &next
	}
	return links
}

// pageURL rebuilds the request URL with the page query parameter replaced.
func pageURL(r *http.Request, page int) string {
	query := r.URL.Query()
	query.Set("page", fmt.Sprintf("%d", page))
	return requestPath(r) + "?" + query.Encode()
}

// requestPath returns the request path including scheme and host when the
// request carries them, falling back to the bare path.
func requestPath(r *http.Request) string {
	if r.Host == "" {
		return r.URL.Path
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.Path
}
