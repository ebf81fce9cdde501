package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// ProblemDetails is an RFC 7807 style error body.
type ProblemDetails struct {
	Status     int                    `json:"status"`
	Code       string                 `json:"code"`
	Title      string                 `json:"title"`
	Detail     string                 `json:"detail"`
	Instance   string                 `json:"instance,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// Render implements render.Renderer.
func (p *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, p.Status)
	return nil
}

// Error implements the error interface so a prebuilt problem can flow
// through HandleError unchanged.
func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("%s: %s", p.Code, p.Detail)
}

// WithExtension attaches an extension member to the problem body.
func (p *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	if p.Extensions == nil {
		p.Extensions = make(map[string]interface{})
	}
	p.Extensions[key] = value
	return p
}

// NewProblemDetails builds a problem body.
func NewProblemDetails(status int, code, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Status:   status,
		Code:     code,
		Title:    title,
		Detail:   detail,
		Instance: instance,
	}
}

// New creates a problem body with the given status, code and detail.
func New(status int, code, detail string) *ProblemDetails {
	return NewProblemDetails(status, code, http.StatusText(status), detail, "")
}

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeCause bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeCause bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeCause: includeCause,
	}
}

// HandleError converts any error to a problem-details response.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	problem := h.errorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)

	render.Render(w, r, problem)
}

// errorToProblem maps the application taxonomy onto HTTP statuses.
func (h *ErrorHandler) errorToProblem(err error, r *http.Request) *ProblemDetails {
	var prebuilt *ProblemDetails
	if stderrors.As(err, &prebuilt) {
		return prebuilt
	}

	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, "TIMEOUT",
			"Request Timeout", "the request took too long and was cancelled", r.URL.Path)
	}

	appErr, ok := AsAppError(err)
	if !ok {
		return NewProblemDetails(http.StatusInternalServerError, "INTERNAL",
			"Internal Server Error", "an unexpected error occurred", r.URL.Path)
	}

	detail := appErr.Message
	if h.includeCause && appErr.Cause != nil {
		detail = appErr.Error()
	}

	status := http.StatusInternalServerError
	switch appErr.Type {
	case ErrTypeValidation, ErrTypeNumericDomain:
		status = http.StatusBadRequest
	case ErrTypeNotFound:
		status = http.StatusNotFound
	case ErrTypeDataUnavailable, ErrTypeInsufficientData:
		status = http.StatusUnprocessableEntity
	case ErrTypeNetwork:
		status = http.StatusBadGateway
	}

	problem := NewProblemDetails(status, string(appErr.Type), http.StatusText(status), detail, r.URL.Path)
	for k, v := range appErr.Context {
		problem.WithExtension(k, v)
	}
	return problem
}

// AsAppError unwraps err to an *AppError when possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
