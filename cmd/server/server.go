package server

import (
	"github.com/sirupsen/logrus"

	"papertrader/src/account"
	"papertrader/src/connectors"
	"papertrader/src/controller"
	"papertrader/src/database"
	"papertrader/src/eligibility"
	"papertrader/src/plan"
	"papertrader/src/regime"
	"papertrader/src/repository"
	"papertrader/src/risk"
	"papertrader/src/server"
)

type Server struct{}

func (s *Server) Start() error {
	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	connCfg := connectors.GetConfig()
	quotes := connectors.NewQuoteClient(connCfg)
	calendar := connectors.NewEquityCalendar()
	detector := connectors.NewQuoteRegimeDetector(quotes, connCfg)

	trades := repository.NewTradeRepository()
	orders := repository.NewOrderRepository()
	plans := repository.NewPlanRepository()
	riskStates := repository.NewRiskStateRepository()
	audits := repository.NewAuditRepository()
	settings := repository.NewSettingsRepository()
	executions := repository.NewExecutionRepository()
	equity := repository.NewEquityRepository()

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

	generator := plan.NewGenerator(
		plans,
		trades,
		regimes,
		quotes,
		connectors.StrategyCatalog(),
		plan.DefaultRankConfig(),
		plan.DefaultGeneratorConfig(),
	)

	server.StartServer(server.GetConfig(), server.Dependencies{
		Orders:    orderController,
		Trades:    trades,
		Plans:     plans,
		Generator: generator,
		Accounts:  accounts,
		Audits:    audits,
		Settings:  settings,
		Quotes:    quotes,
	})

	return nil
}
