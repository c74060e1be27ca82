package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "carbonledger/pkg/domain-errors"
)

// WriteJSON writes a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// WriteError translates a domain error code into an HTTP status. Message
// text is surfaced as a description; clients branch on the code.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		status = http.StatusBadRequest
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeUnauthorized:
		status = http.StatusForbidden
	case dErrors.CodeInsufficientBalance, dErrors.CodeOverflow,
		dErrors.CodeAlreadyInitialized, dErrors.CodeConflict:
		status = http.StatusConflict
	}

	description := err.Error()
	var de *dErrors.Error
	if errors.As(err, &de) {
		description = de.Message
	}
	WriteJSON(w, status, errorBody{Error: string(code), Description: description})
}
