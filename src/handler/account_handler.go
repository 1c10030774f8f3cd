package handler

import (
	"context"
	"net/http"
	"strconv"

	logger "github.com/sirupsen/logrus"

	"papertrader/src/account"
	"papertrader/src/model"
)

type snapshotService interface {
	Snapshot(ctx context.Context, accountID uint) (*account.Snapshot, error)
}

type auditLister interface {
	FindLatest(ctx context.Context, subjectID uint, limit int) ([]model.AuditEvent, error)
}

// AccountSnapshotHandler recomputes the derived account view from the trade
// log and latest quotes.
func AccountSnapshotHandler(accounts snapshotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := accountIDParam(w, r)
		if !ok {
			return
		}

		snapshot, err := accounts.Snapshot(r.Context(), accountID)
		if err != nil {
			logger.WithError(err).Error("failed to build account snapshot")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, snapshot)
	}
}

// AuditHistoryHandler lists recent audit events for display.
func AuditHistoryHandler(audits auditLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := accountIDParam(w, r)
		if !ok {
			return
		}

		limit := 50
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			parsed, err := strconv.Atoi(limitParam)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		events, err := audits.FindLatest(r.Context(), accountID, limit)
		if err != nil {
			logger.WithError(err).Error("failed to list audit events")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, events)
	}
}
