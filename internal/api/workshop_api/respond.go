package workshop_api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/WorkshopBox/internal/api/middleware"
	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encode response", "error", err.Error())
	}
}

// mapError turns service and storage errors into a status and a body that
// never leaks internals.
func mapError(err error) (int, errorBody) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case apperr.KindNotFound:
			return http.StatusNotFound, errorBody{Code: string(ae.Kind), Message: ae.Error()}
		case apperr.KindValidation:
			return http.StatusBadRequest, errorBody{Code: string(ae.Kind), Message: ae.Message, Fields: ae.Fields}
		case apperr.KindInvalidState:
			return http.StatusConflict, errorBody{Code: string(ae.Kind), Message: ae.Error()}
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return http.StatusConflict, errorBody{Code: "conflict", Message: "Duplicate value violates a unique constraint."}
		case "23503": // foreign_key_violation
			return http.StatusBadRequest, errorBody{Code: string(apperr.KindValidation), Message: "Referenced record not found."}
		case "23514", "23502", "22P02":
			return http.StatusBadRequest, errorBody{Code: string(apperr.KindValidation), Message: "Invalid value."}
		}
	}

	return http.StatusInternalServerError, errorBody{Code: "internal", Message: "internal error"}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := mapError(err)
	if status >= http.StatusInternalServerError {
		attrs := []any{"method", r.Method, "path", r.URL.Path, "error", err.Error()}
		if rid, ok := middleware.GetRequestID(r.Context()); ok {
			attrs = append(attrs, "request_id", rid)
		}
		slog.Error("request failed", attrs...)
	}
	writeJSON(w, status, body)
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &apperr.Error{Kind: apperr.KindValidation, Message: "malformed JSON body: " + err.Error()}
	}
	return nil
}

// decodeOptional is decode for endpoints whose body may be omitted. An empty
// body leaves dst untouched, whether or not its length was announced.
func decodeOptional(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &apperr.Error{Kind: apperr.KindValidation, Message: "malformed JSON body: " + err.Error()}
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(map[string]string{"id": "must be a positive integer"})
	}
	return id, nil
}

func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperr.Validation(map[string]string{name: "must be an integer"})
	}
	return &v, nil
}

func queryString(r *http.Request, name string) *string {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	return &raw
}

// queryDate parses a YYYY-MM-DD query parameter as a UTC day.
func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperr.Validation(map[string]string{name: "must be a date in YYYY-MM-DD format"})
	}
	return &t, nil
}

// actor is the acting staff member as forwarded by the SPA gateway.
func actor(r *http.Request) *int64 {
	raw := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}
