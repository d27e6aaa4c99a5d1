package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/dzahariev/respite-users/common"
	"github.com/dzahariev/respite-users/domain"
)

const (
	jsonMediaType      = "application/json"
	jsonPatchMediaType = "application/json-patch+json"
)

// Wrapper for public resources
func (server *Server) Public(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next(w, r)
	}
}

// Wrapper for protected resources. Without an auth client every request passes.
func (server *Server) Protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if server.AuthClient == nil {
			next(w, r)
			return
		}
		ctx := r.Context()
		logger := common.GetLogger(ctx)
		// Parse token
		authHeader := r.Header.Get("Authorization")
		if len(authHeader) < 7 {
			logger.Error("Unauthorized request, missing or invalid Authorization header")
			ERROR(w, http.StatusUnauthorized, fmt.Errorf("unauthorized, missing bearer authorization header"))
			return
		}
		authType := strings.ToLower(authHeader[:6])
		if authType != "bearer" {
			logger.Error("Unauthorized request, invalid Authorization header type", "type", authType)
			ERROR(w, http.StatusUnauthorized, fmt.Errorf("unauthorized, invalid bearer authorization header"))
			return
		}
		// Verify token is valid
		tokenString := strings.TrimSpace(authHeader[7:])
		err := server.AuthClient.RetrospectToken(ctx, tokenString)
		if err != nil {
			logger.Error("Unauthorized request, invalid token", "error", err)
			ERROR(w, http.StatusUnauthorized, err)
			return
		}
		subject, err := server.AuthClient.GetSubjectFromToken(ctx, tokenString)
		if err != nil {
			logger.Error("Unauthorized request, cannot get subject from token", "error", err)
			ERROR(w, http.StatusUnauthorized, err)
			return
		}
		newCtx := common.WithLogger(ctx, logger.With("subject", subject))
		next(w, r.WithContext(newCtx))
	}
}

// Middleware to add request context and request_id logger into context
func (server *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestContext := common.NewRequestContext(r, server.pageLimits())
		logger := common.GetLogger(r.Context()).With("request_id", requestContext.RequestID.String())
		ctx := common.WithLogger(r.Context(), logger)
		ctx = common.WithRequestContext(ctx, requestContext)
		logger.Debug("Request received", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContentTypeJSON set the content type to JSON
func ContentTypeJSON(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", jsonMediaType)
		next(w, r)
	}
}

// JSON returns data as JSON stream
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", jsonMediaType)
	}
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		fmt.Fprintf(w, "%s", err.Error())
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ERROR returns error as JSON representation
func ERROR(w http.ResponseWriter, statusCode int, err error) {
	if err == nil {
		JSON(w, statusCode, nil)
		return
	}
	response := ErrorResponse{Error: err.Error()}
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		response.Field = validationErr.Field
	}
	JSON(w, statusCode, response)
}

// StatusFor maps an error to the HTTP status it terminates the request with.
func StatusFor(err error) int {
	var statusErr domain.StatusCodeError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode()
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// UnsupportedMediaTypeError is returned for request bodies that are not JSON.
type UnsupportedMediaTypeError struct {
	ContentType string
	Accepted    []string
}

func (e *UnsupportedMediaTypeError) Error() string {
	return fmt.Sprintf("unsupported content type %q, expected one of %s", e.ContentType, strings.Join(e.Accepted, ", "))
}

func (e *UnsupportedMediaTypeError) StatusCode() int {
	return http.StatusUnsupportedMediaType
}

// readBody checks the request content type and reads at most the configured
// number of bytes. A missing Content-Type is treated as JSON.
func (server *Server) readBody(w http.ResponseWriter, r *http.Request, accepted ...string) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || !slices.Contains(accepted, mediaType) {
			return nil, &UnsupportedMediaTypeError{ContentType: contentType, Accepted: accepted}
		}
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, server.Config.Server.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("cannot read request body: %w", err)
	}
	return body, nil
}
