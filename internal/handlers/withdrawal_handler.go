package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"cash-reconciliation-service/internal/models"
	"cash-reconciliation-service/internal/services"
)

type WithdrawalHandler struct {
	provider *serviceProvider
}

func NewWithdrawalHandler(provider *serviceProvider) *WithdrawalHandler {
	return &WithdrawalHandler{provider: provider}
}

func (h *WithdrawalHandler) RecordWithdrawal(w http.ResponseWriter, r *http.Request) {
	var input services.WithdrawalInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	withdrawal, err := h.provider.forRequest(r).BackSafe.RecordWithdrawal(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, withdrawal)
}

func (h *WithdrawalHandler) EditWithdrawal(w http.ResponseWriter, r *http.Request) {
	var update services.WithdrawalUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	withdrawal, err := h.provider.forRequest(r).BackSafe.EditWithdrawal(r.Context(), mux.Vars(r)["id"], update)
	if err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, withdrawal)
}

func (h *WithdrawalHandler) GetWithdrawal(w http.ResponseWriter, r *http.Request) {
	withdrawal, err := h.provider.forRequest(r).BackSafe.GetWithdrawal(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, withdrawal)
}

func (h *WithdrawalHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	withdrawals, err := h.provider.forRequest(r).BackSafe.ListWithdrawals(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	if withdrawals == nil {
		withdrawals = []*models.BackSafeWithdrawal{}
	}
	respondWithJSON(w, http.StatusOK, withdrawals)
}

func (h *WithdrawalHandler) DeleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	if err := h.provider.forRequest(r).BackSafe.DeleteWithdrawal(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Withdrawal deleted"})
}

func (h *WithdrawalHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.provider.forRequest(r).BackSafe.ListTransactions(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	if txns == nil {
		txns = []*models.BackSafeTransaction{}
	}
	respondWithJSON(w, http.StatusOK, txns)
}
