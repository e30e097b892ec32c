package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"time"

	"review-central/internal/ai"
	"review-central/internal/service"
)

const maxBodyBytes = 1 << 20

var timeType = reflect.TypeOf(time.Time{})

// normalizeSlices recursively replaces nil slices with empty ones. Nil
// slices would encode as null and the frontend expects arrays.
func normalizeSlices(data any) any {
	if data == nil {
		return nil
	}
	v := normalizeValue(reflect.ValueOf(data))
	return v.Interface()
}

func normalizeValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() || v.Elem().Type() == timeType {
			return v
		}
		out := reflect.New(v.Elem().Type())
		out.Elem().Set(normalizeValue(v.Elem()))
		return out

	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0)
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := range v.Len() {
			out.Index(i).Set(normalizeValue(v.Index(i)))
		}
		return out

	case reflect.Struct:
		if v.Type() == timeType {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		for i := range v.NumField() {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			out.Field(i).Set(normalizeValue(v.Field(i)))
		}
		return out
	}
	return v
}

// respondWithJSON writes payload with code, normalizing nil slices first
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(normalizeSlices(payload))
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(append(body, '\n'))
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// decodeJSON reads a single JSON document from the request body
func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// respondWithServiceError maps service and AI errors to HTTP status codes.
// Unexpected errors are logged and answered with a generic message.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var validationErr *service.ValidationError
	var inputErr *ai.InputError

	switch {
	case errors.As(err, &validationErr):
		respondWithError(w, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &inputErr):
		respondWithError(w, http.StatusBadRequest, inputErr.Message)
	case errors.Is(err, service.ErrSelfAssignment):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrDuplicateEmail):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, ErrMsgNotFound)
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, http.StatusForbidden, ErrMsgPermissionDenied)
	case errors.Is(err, ai.ErrAIUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ai.ErrInvalidOutput), errors.Is(err, ai.ErrGeneration):
		slog.Warn("AI flow failed", "operation", op, "error", err)
		respondWithError(w, http.StatusBadGateway, ErrMsgAIFailed)
	default:
		slog.Error("Request failed", "operation", op, "method", r.Method, "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusInternalServerError, ErrMsgInternal)
	}
}
