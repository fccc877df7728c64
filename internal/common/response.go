package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Status string            `json:"status"`
	Errors map[string]string `json:"errors"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Status: StatusFail, Message: message})
}

// RespondWithAppError writes err as a {status, message} body, or a field map for
// ValidationError. Unknown errors are reported as ServerError without their text.
func RespondWithAppError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		RespondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{Status: StatusFail, Errors: vErr.Fields})
		return
	}
	RespondWithError(w, HTTPStatusFromError(err), AsAppError(err).Error())
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":"fail","message":"Internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
