package middleware

import (
	"encoding/json"
	"net/http"

	apierrors "pricepulse/internal/errors"
)

// Problem is the RFC 7807 body written by the middleware itself, before any
// handler runs. Handlers render problems through the errors package.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Trace  string `json:"trace_id,omitempty"`
}

// problemTypes covers the statuses the middleware chain can produce
var problemTypes = map[int]string{
	http.StatusNotFound:            apierrors.TypeNotFound,
	http.StatusTooManyRequests:     apierrors.TypeRateLimit,
	http.StatusInternalServerError: apierrors.TypeInternal,
	http.StatusServiceUnavailable:  apierrors.TypeServiceDown,
	http.StatusGatewayTimeout:      apierrors.TypeTimeout,
}

// ProblemFromStatus builds a Problem for status. Unmapped statuses get the
// "/errors/unknown" type.
func ProblemFromStatus(status int, detail string, traceID string) Problem {
	typ, ok := problemTypes[status]
	if !ok {
		typ = "/errors/unknown"
	}
	return Problem{
		Type:   typ,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Trace:  traceID,
	}
}

func writeProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	json.NewEncoder(w).Encode(p)
}
