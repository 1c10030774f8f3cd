package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	logger "github.com/sirupsen/logrus"

	"papertrader/src/connectors"
	"papertrader/src/controller"
	"papertrader/src/model"
)

type orderExecutor interface {
	Execute(ctx context.Context, req controller.OrderRequest) (*controller.ExecutionOutcome, error)
}

type tradeLister interface {
	FindLatest(ctx context.Context, accountID uint, limit int) ([]model.Trade, error)
}

// PlaceOrderHandler returns a handler that runs the execution pipeline for
// a submitted order. Validation problems map to 400, missing market data to
// 503, session and price-constraint rejections to 422; guardrail blocks are
// 200 responses with blocked set.
func PlaceOrderHandler(executor orderExecutor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req controller.OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		outcome, err := executor.Execute(r.Context(), req)
		if err != nil {
			var validationErr *controller.ValidationError
			switch {
			case errors.As(err, &validationErr):
				http.Error(w, validationErr.Error(), http.StatusBadRequest)
			case errors.Is(err, connectors.ErrQuoteUnavailable):
				http.Error(w, "market data unavailable", http.StatusServiceUnavailable)
			case errors.Is(err, controller.ErrMarketClosed),
				errors.Is(err, controller.ErrLimitNotSatisfied),
				errors.Is(err, controller.ErrMaxPriceExceeded):
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			default:
				logger.WithError(err).Error("order execution failed")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, outcome)
	}
}

// ListTradesHandler returns recent trades for an account.
func ListTradesHandler(trades tradeLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := accountIDParam(w, r)
		if !ok {
			return
		}

		limit := 20
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			parsed, err := strconv.Atoi(limitParam)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		result, err := trades.FindLatest(r.Context(), accountID, limit)
		if err != nil {
			logger.WithError(err).Error("failed to list trades")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func accountIDParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := r.URL.Query().Get("accountId")
	if raw == "" {
		http.Error(w, "accountId is required", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		http.Error(w, "invalid accountId", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}
