package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"cash-reconciliation-service/internal/models"
	"cash-reconciliation-service/internal/services"
)

// EntryResponse adds the derived status to a daily entry.
type EntryResponse struct {
	*models.DailyEntry
	Status string `json:"status"`
}

func entryResponse(e *models.DailyEntry) EntryResponse {
	return EntryResponse{DailyEntry: e, Status: e.Status()}
}

type EntryHandler struct {
	provider *serviceProvider
}

func NewEntryHandler(provider *serviceProvider) *EntryHandler {
	return &EntryHandler{provider: provider}
}

func (h *EntryHandler) SubmitEntry(w http.ResponseWriter, r *http.Request) {
	var input services.EntryInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	entry, err := h.provider.forRequest(r).Reconciliation.SubmitEntry(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, entryResponse(entry))
}

func (h *EntryHandler) EditEntry(w http.ResponseWriter, r *http.Request) {
	var update services.EntryUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	entry, err := h.provider.forRequest(r).Reconciliation.EditEntry(r.Context(), mux.Vars(r)["id"], update)
	if err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entryResponse(entry))
}

func (h *EntryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.provider.forRequest(r).Reconciliation.GetEntry(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entryResponse(entry))
}

func (h *EntryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.provider.forRequest(r).Reconciliation.ListEntries(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}

	result := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, entryResponse(e))
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *EntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.provider.forRequest(r).Reconciliation.DeleteEntry(r.Context(), id); err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Daily entry deleted"})
}

func (h *EntryHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Note string `json:"note"`
	}
	if err := decodeJSON(r, &request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	entry, err := h.provider.forRequest(r).Reconciliation.Approve(r.Context(), mux.Vars(r)["id"], request.Note)
	if err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entryResponse(entry))
}

func (h *EntryHandler) RemoveApproval(w http.ResponseWriter, r *http.Request) {
	entry, err := h.provider.forRequest(r).Reconciliation.RemoveApproval(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entryResponse(entry))
}
