package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"cash-reconciliation-service/internal/config"
	"cash-reconciliation-service/internal/repositories"
	"cash-reconciliation-service/internal/services"
)

// AccountHeader identifies the account whose records a request works on.
// Authentication sits in front of this service and sets it.
const AccountHeader = "X-Account-ID"

type contextKey string

const accountKey contextKey = "account"

func SetupRouter(stores repositories.StoreFactory, cfg *config.Config, log *logrus.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware(log))

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	provider := &serviceProvider{
		stores: stores,
		log:    log,
		opts:   services.Options{MonthCloseMode: cfg.MonthCloseMode},
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(jsonContentTypeMiddleware)
	api.Use(accountMiddleware)

	balanceHandler := NewBalanceHandler(provider)
	api.HandleFunc("/balances", balanceHandler.GetBalances).Methods(http.MethodGet)

	entryHandler := NewEntryHandler(provider)
	api.HandleFunc("/entries", entryHandler.ListEntries).Methods(http.MethodGet)
	api.HandleFunc("/entries", entryHandler.SubmitEntry).Methods(http.MethodPost)
	api.HandleFunc("/entries/{id}", entryHandler.GetEntry).Methods(http.MethodGet)
	api.HandleFunc("/entries/{id}", entryHandler.EditEntry).Methods(http.MethodPut)
	api.HandleFunc("/entries/{id}", entryHandler.DeleteEntry).Methods(http.MethodDelete)
	api.HandleFunc("/entries/{id}/approval", entryHandler.Approve).Methods(http.MethodPost)
	api.HandleFunc("/entries/{id}/approval", entryHandler.RemoveApproval).Methods(http.MethodDelete)

	withdrawalHandler := NewWithdrawalHandler(provider)
	api.HandleFunc("/withdrawals", withdrawalHandler.ListWithdrawals).Methods(http.MethodGet)
	api.HandleFunc("/withdrawals", withdrawalHandler.RecordWithdrawal).Methods(http.MethodPost)
	api.HandleFunc("/withdrawals/{id}", withdrawalHandler.GetWithdrawal).Methods(http.MethodGet)
	api.HandleFunc("/withdrawals/{id}", withdrawalHandler.EditWithdrawal).Methods(http.MethodPut)
	api.HandleFunc("/withdrawals/{id}", withdrawalHandler.DeleteWithdrawal).Methods(http.MethodDelete)
	api.HandleFunc("/transactions", withdrawalHandler.ListTransactions).Methods(http.MethodGet)

	archiveHandler := NewArchiveHandler(provider)
	api.HandleFunc("/archives", archiveHandler.ListArchives).Methods(http.MethodGet)
	api.HandleFunc("/archives/{month}", archiveHandler.GetArchive).Methods(http.MethodGet)
	api.HandleFunc("/archives/{month}/close", archiveHandler.CloseMonth).Methods(http.MethodPost)

	return router
}

// serviceProvider builds the account-scoped services for a request.
type serviceProvider struct {
	stores repositories.StoreFactory
	log    *logrus.Logger
	opts   services.Options
}

func (p *serviceProvider) forRequest(r *http.Request) *services.Services {
	account, _ := r.Context().Value(accountKey).(string)
	return services.New(p.stores.ForAccount(account), p.log, p.opts)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_addr": r.RemoteAddr,
			}).Debug("Request handled")
		})
	}
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func accountMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := strings.TrimSpace(r.Header.Get(AccountHeader))
		if account == "" {
			respondWithError(w, http.StatusUnauthorized, AccountHeader+" header is required")
			return
		}
		ctx := context.WithValue(r.Context(), accountKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "healthy",
	}
	respondWithJSON(w, http.StatusOK, response)
}
