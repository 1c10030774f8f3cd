package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"papertrader/src/model"
	"papertrader/src/plan"
	"papertrader/src/repository"
)

type planGenerator interface {
	Generate(ctx context.Context, accountID uint) (*model.TradePlan, error)
}

type planReader interface {
	FindByDate(ctx context.Context, accountID uint, date string) (*model.TradePlan, error)
	TransitionIdea(ctx context.Context, ideaID string, next model.IdeaStatus, tradeID *uint) error
}

type planAuditSink interface {
	Write(ctx context.Context, subjectID uint, eventType string, payload map[string]interface{}) error
}

// GeneratePlanHandler creates today's plan. An existing plan for the date is
// a 409, never an overwrite.
func GeneratePlanHandler(generator planGenerator, audits planAuditSink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := accountIDParam(w, r)
		if !ok {
			return
		}

		created, err := generator.Generate(r.Context(), accountID)
		if err != nil {
			if errors.Is(err, plan.ErrDuplicatePlan) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			logger.WithError(err).Error("failed to generate trade plan")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if err := audits.Write(r.Context(), accountID, model.AuditPlanGenerated, map[string]interface{}{
			"plan_id":   created.ID,
			"plan_date": created.PlanDate,
			"ideas":     len(created.Ideas),
		}); err != nil {
			logger.WithError(err).Error("failed to audit plan generation")
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

// TodayPlanHandler fetches the current plan with rankings and ideas.
func TodayPlanHandler(plans planReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := accountIDParam(w, r)
		if !ok {
			return
		}

		date := time.Now().UTC().Format("2006-01-02")
		result, err := plans.FindByDate(r.Context(), accountID, date)
		if err != nil {
			logger.WithError(err).Error("failed to fetch trade plan")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if result == nil {
			http.Error(w, "no plan for today", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// SkipIdeaHandler marks a pending idea as skipped. Terminal ideas reject the
// transition with a 409.
func SkipIdeaHandler(plans planReader, audits planAuditSink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := accountIDParam(w, r)
		if !ok {
			return
		}

		ideaID := chi.URLParam(r, "ideaID")
		if ideaID == "" {
			http.Error(w, "ideaID is required", http.StatusBadRequest)
			return
		}

		err := plans.TransitionIdea(r.Context(), ideaID, model.IdeaStatusSkipped, nil)
		if err != nil {
			if errors.Is(err, repository.ErrTerminalIdea) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			logger.WithError(err).Error("failed to skip idea")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if err := audits.Write(r.Context(), accountID, model.AuditIdeaSkipped, map[string]interface{}{
			"idea_id": ideaID,
		}); err != nil {
			logger.WithError(err).Error("failed to audit idea skip")
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
