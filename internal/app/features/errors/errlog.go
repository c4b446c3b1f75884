// internal/app/features/errors/errlog.go
package errors

import (
	"fmt"
	"html"
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger pairs structured logging with user-facing error pages so
// handlers can report a failure to both audiences in one call. The
// internal message and error go to zap; only userMsg reaches the
// browser.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(log *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: log}
}

func (e *ErrorLogger) logIt(r *http.Request, logMsg string, err error) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	e.log.Error(logMsg, fields...)
}

// LogServerError logs the internal error and renders the server error page.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.logIt(r, logMsg, err)
	RenderServerError(w, r, userMsg, backURL)
}

// LogBadRequest logs the internal error and renders the bad request page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.logIt(r, logMsg, err)
	RenderBadRequest(w, r, userMsg, backURL)
}

// LogNotFound logs the internal error and renders the not found page.
func (e *ErrorLogger) LogNotFound(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.logIt(r, logMsg, err)
	RenderNotFound(w, r, userMsg, backURL)
}

// LogForbidden logs the internal error and renders the forbidden page.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.logIt(r, logMsg, err)
	RenderForbidden(w, r, userMsg, backURL)
}

// htmxError writes an inline fragment for HTMX swaps instead of a full
// error page. backURL gives the user somewhere to go when the fragment
// replaces the triggering element.
func htmxError(w http.ResponseWriter, status int, userMsg, backURL string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<div class="alert alert-danger" role="alert">%s <a href=%q>Go back</a></div>`, html.EscapeString(userMsg), backURL)
}

// HTMXLogServerError logs the internal error and writes an HTMX error fragment.
func (e *ErrorLogger) HTMXLogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.logIt(r, logMsg, err)
	htmxError(w, http.StatusInternalServerError, userMsg, backURL)
}

// HTMXLogBadRequest logs the internal error and writes an HTMX error fragment.
func (e *ErrorLogger) HTMXLogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.logIt(r, logMsg, err)
	htmxError(w, http.StatusBadRequest, userMsg, backURL)
}

// HTMXLogForbidden logs the internal error and writes an HTMX error fragment.
func (e *ErrorLogger) HTMXLogForbidden(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.logIt(r, logMsg, err)
	htmxError(w, http.StatusForbidden, userMsg, backURL)
}
