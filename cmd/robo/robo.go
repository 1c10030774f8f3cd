package robo

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"papertrader/src/account"
	"papertrader/src/connectors"
	"papertrader/src/controller"
	"papertrader/src/database"
	"papertrader/src/eligibility"
	"papertrader/src/regime"
	"papertrader/src/repository"
	"papertrader/src/risk"
	"papertrader/src/robo"
)

type Robo struct{}

func (t *Robo) Start() error {
	config := robo.GetConfig()
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	connCfg := connectors.GetConfig()
	quotes := connectors.NewQuoteClient(connCfg)
	calendar := connectors.NewEquityCalendar()
	detector := connectors.NewQuoteRegimeDetector(quotes, connCfg)
	notifier := connectors.NewWebhookNotifier(connCfg)

	trades := repository.NewTradeRepository()
	orders := repository.NewOrderRepository()
	riskStates := repository.NewRiskStateRepository()
	audits := repository.NewAuditRepository()
	settings := repository.NewSettingsRepository()
	executions := repository.NewExecutionRepository()
	equity := repository.NewEquityRepository()
	locks := repository.NewLockRepository()
	usage := repository.NewUsageRepository()

	ctrlCfg := controller.GetConfig()
	accounts := account.NewService(trades, quotes, ctrlCfg.StartingCash)
	regimes := regime.NewService(repository.NewRegimeRepository(), detector)

	orderController := controller.NewOrderController(
		executions,
		orders,
		audits,
		riskStates,
		regimes,
		equity,
		accounts,
		trades,
		quotes,
		calendar,
		risk.DefaultGuardrailConfig(),
		eligibility.DefaultGateConfig(),
		ctrlCfg,
	)

	coordinator := robo.NewCoordinator(
		settings,
		locks,
		usage,
		audits,
		orderController,
		quotes,
		notifier,
		nil,
		config,
	)

	logrus.WithField("tick_interval", config.TickInterval.String()).Info("Starting autonomous coordinator")

	if err := coordinator.StartLoop(ctx); err != nil {
		logrus.WithError(err).Error("Failed to start coordinator loop")
		return err
	}

	return nil
}
