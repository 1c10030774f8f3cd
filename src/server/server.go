package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"papertrader/src/account"
	"papertrader/src/connectors"
	"papertrader/src/controller"
	"papertrader/src/handler"
	"papertrader/src/plan"
	"papertrader/src/repository"
)

// Dependencies carries the constructed services the API routes need.
type Dependencies struct {
	Orders    *controller.OrderController
	Trades    *repository.TradeRepository
	Plans     *repository.PlanRepository
	Generator *plan.Generator
	Accounts  *account.Service
	Audits    *repository.AuditRepository
	Settings  *repository.SettingsRepository
	Quotes    connectors.QuoteService
}

func StartServer(config *Config, deps Dependencies) {
	// Router with middleware
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error(" \"/health error")
		}
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/orders", handler.PlaceOrderHandler(deps.Orders))
		r.Get("/trades", handler.ListTradesHandler(deps.Trades))

		r.Post("/plans", handler.GeneratePlanHandler(deps.Generator, deps.Audits))
		r.Get("/plans/today", handler.TodayPlanHandler(deps.Plans))
		r.Post("/plans/ideas/{ideaID}/skip", handler.SkipIdeaHandler(deps.Plans, deps.Audits))

		r.Get("/account/snapshot", handler.AccountSnapshotHandler(deps.Accounts))
		r.Get("/account/audit", handler.AuditHistoryHandler(deps.Audits))

		r.Get("/robo/settings", handler.GetRoboSettingsHandler(deps.Settings))
		r.Put("/robo/settings", handler.UpdateRoboSettingsHandler(deps.Settings))
	})

	r.Get("/ws/quotes", handler.QuoteStreamHandler(deps.Quotes, config.QuoteStreamPeriod))

	// Graceful server
	// Server setup
	addr := ":" + config.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
