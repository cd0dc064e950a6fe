package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"cash-reconciliation-service/internal/apperrors"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

var statusByKind = map[apperrors.Kind]int{
	apperrors.KindValidation:        http.StatusBadRequest,
	apperrors.KindNotFound:          http.StatusNotFound,
	apperrors.KindDuplicateDate:     http.StatusConflict,
	apperrors.KindInsufficientFunds: http.StatusUnprocessableEntity,
	apperrors.KindEmptyPeriod:       http.StatusUnprocessableEntity,
	apperrors.KindStoreUnavailable:  http.StatusServiceUnavailable,
}

// respondWithServiceError maps a service failure onto a status code. Server
// side failures are logged; the client gets a generic message for them.
func respondWithServiceError(w http.ResponseWriter, log *logrus.Logger, r *http.Request, err error) {
	kind := apperrors.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"kind":   kind,
		}).WithError(err).Error("Request failed")
		respondWithJSON(w, status, ErrorResponse{Error: http.StatusText(status), Kind: string(kind)})
		return
	}

	resp := ErrorResponse{Error: err.Error(), Kind: string(kind)}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		resp.Field = appErr.Field
	}
	respondWithJSON(w, status, resp)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Error marshaling JSON response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
