package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"cash-reconciliation-service/internal/models"
)

type ArchiveHandler struct {
	provider *serviceProvider
}

func NewArchiveHandler(provider *serviceProvider) *ArchiveHandler {
	return &ArchiveHandler{provider: provider}
}

func (h *ArchiveHandler) CloseMonth(w http.ResponseWriter, r *http.Request) {
	archive, err := h.provider.forRequest(r).MonthClose.CloseMonth(r.Context(), mux.Vars(r)["month"])
	if err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, archive)
}

func (h *ArchiveHandler) GetArchive(w http.ResponseWriter, r *http.Request) {
	archive, err := h.provider.forRequest(r).MonthClose.GetArchive(r.Context(), mux.Vars(r)["month"])
	if err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, archive)
}

func (h *ArchiveHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	archives, err := h.provider.forRequest(r).MonthClose.ListArchives(r.Context())
	if err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	if archives == nil {
		archives = []*models.MonthlyArchive{}
	}
	respondWithJSON(w, http.StatusOK, archives)
}
