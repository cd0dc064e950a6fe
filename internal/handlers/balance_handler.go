package handlers

import (
	"net/http"
)

type BalanceHandler struct {
	provider *serviceProvider
}

func NewBalanceHandler(provider *serviceProvider) *BalanceHandler {
	return &BalanceHandler{provider: provider}
}

// GetBalances returns the current balances and open discrepancy count, or
// the balances at the end of the as_of date when given.
func (h *BalanceHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	balances := h.provider.forRequest(r).Balances

	if asOf := r.URL.Query().Get("as_of"); asOf != "" {
		result, err := balances.AsOf(r.Context(), asOf)
		if err != nil {
			respondWithServiceError(w, h.provider.log, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, result)
		return
	}

	summary, err := balances.Summary(r.Context())
	if err != nil {
		respondWithServiceError(w, h.provider.log, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}
