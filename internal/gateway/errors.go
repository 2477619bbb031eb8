package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/Phonezzzz/llmbridge/internal/llm"
)

// errorBody is the JSON error envelope returned by all API endpoints.
type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeError maps an error's kind onto an HTTP status and writes the JSON
// envelope. The message is the user-facing one; technical detail stays in
// the logs.
func writeError(w http.ResponseWriter, err error) {
	kind := llm.ErrorKind(err)

	status := http.StatusInternalServerError
	switch kind {
	case llm.KindValidation:
		status = http.StatusBadRequest
	case llm.KindAuthentication:
		status = http.StatusUnauthorized
	case llm.KindTimeout:
		status = http.StatusGatewayTimeout
	case llm.KindNetwork, llm.KindAPI:
		status = http.StatusBadGateway
	}

	var body errorBody
	body.Error.Kind = string(kind)
	body.Error.Message = llm.UserMessage(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
