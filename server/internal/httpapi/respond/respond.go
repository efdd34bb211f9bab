// Package respond writes the host API envelope:
// {"status":{"code":...,"message":...},"response":{...}}
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Status codes carried in the envelope
const (
	CodeOK           = "ok"
	CodeBadRequest   = "bad-request"
	CodeUnauthorized = "not-authorised"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not-found"
	CodeError        = "error"
)

type Status struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Envelope struct {
	Status   Status `json:"status"`
	Response any    `json:"response"`
}

// OK writes a 200 with response as the payload
func OK(w http.ResponseWriter, response any) {
	write(w, http.StatusOK, Envelope{
		Status:   Status{Code: CodeOK, Message: "OK"},
		Response: response,
	})
}

// Error writes an error envelope with an empty response object
func Error(w http.ResponseWriter, httpStatus int, code, message string) {
	write(w, httpStatus, Envelope{
		Status:   Status{Code: code, Message: message},
		Response: struct{}{},
	})
}

func write(w http.ResponseWriter, httpStatus int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Default().Warn("failed to write response", slog.String("error", err.Error()))
	}
}
