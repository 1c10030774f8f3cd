package plan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"papertrader/src/connectors"
	"papertrader/src/model"
)

// ErrDuplicatePlan is returned when a plan already exists for the account
// and date. Regeneration never overwrites an existing plan.
var ErrDuplicatePlan = errors.New("trade plan already exists for this date")

type planRepository interface {
	ExistsForDate(ctx context.Context, accountID uint, date string) (bool, error)
	Create(ctx context.Context, plan *model.TradePlan) error
}

type tradeSource interface {
	FindClosedSince(ctx context.Context, accountID uint, since time.Time) ([]model.Trade, error)
}

type regimeSource interface {
	GetOrCreate(ctx context.Context, accountID uint, date string) (*model.RegimeSnapshot, error)
}

// GeneratorConfig tunes plan construction on top of the ranking config.
type GeneratorConfig struct {
	ExposureCapPct float64
	MaxIdeas       int
	MaxPositionPct float64
	ChoppyVolScale float64
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		ExposureCapPct: 0.20,
		MaxIdeas:       3,
		MaxPositionPct: 0.10,
		ChoppyVolScale: 0.75,
	}
}

// Generator builds the daily trade plan: rank strategies over the trailing
// window, turn the top entries into sized buy ideas, and cap total exposure.
type Generator struct {
	plans   planRepository
	trades  tradeSource
	regimes regimeSource
	quotes  connectors.QuoteService
	catalog []connectors.CatalogStrategy
	rankCfg RankConfig
	cfg     GeneratorConfig
	now     func() time.Time
}

func NewGenerator(
	plans planRepository,
	trades tradeSource,
	regimes regimeSource,
	quotes connectors.QuoteService,
	catalog []connectors.CatalogStrategy,
	rankCfg RankConfig,
	cfg GeneratorConfig,
) *Generator {
	return &Generator{
		plans:   plans,
		trades:  trades,
		regimes: regimes,
		quotes:  quotes,
		catalog: catalog,
		rankCfg: rankCfg,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Generate creates today's plan for the account, or fails with
// ErrDuplicatePlan if one exists already, regardless of market status.
func (g *Generator) Generate(ctx context.Context, accountID uint) (*model.TradePlan, error) {
	now := g.now().UTC()
	date := now.Format("2006-01-02")

	exists, err := g.plans.ExistsForDate(ctx, accountID, date)
	if err != nil {
		return nil, fmt.Errorf("checking existing plan: %w", err)
	}
	if exists {
		return nil, ErrDuplicatePlan
	}

	regime, err := g.regimes.GetOrCreate(ctx, accountID, date)
	if err != nil {
		return nil, fmt.Errorf("resolving regime snapshot: %w", err)
	}

	since := now.AddDate(0, 0, -g.rankCfg.WindowDays)
	closed, err := g.trades.FindClosedSince(ctx, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("loading trade history: %w", err)
	}

	catalogIDs := make([]string, 0, len(g.catalog))
	byID := make(map[string]connectors.CatalogStrategy, len(g.catalog))
	for _, s := range g.catalog {
		catalogIDs = append(catalogIDs, s.StrategyID)
		byID[s.StrategyID] = s
	}

	ranked := RankStrategies(g.rankCfg, closed, regime, catalogIDs)

	tradePlan := &model.TradePlan{
		AccountID:        accountID,
		PlanDate:         date,
		RegimeSnapshotID: &regime.ID,
		Notes: fmt.Sprintf("regime %s/%s/%s, %d of %d strategies qualified",
			regime.TrendChop, regime.Volatility, regime.Risk, len(ranked), len(catalogIDs)),
	}

	for i, entry := range ranked {
		tradePlan.RankedStrategies = append(tradePlan.RankedStrategies, model.PlanStrategyRank{
			StrategyID:     entry.StrategyID,
			Rank:           i + 1,
			TradeCount:     entry.TradeCount,
			Expectancy:     entry.Expectancy,
			StdDevR:        entry.StdDevR,
			SharpeLike:     entry.SharpeLike,
			RecentAvgR:     entry.RecentAvgR,
			WinRate:        entry.WinRate,
			AlignmentScore: entry.AlignmentScore,
			CompositeScore: entry.CompositeScore,
		})
	}

	ideas, totalPct, err := g.buildIdeas(ctx, ranked, regime, byID)
	if err != nil {
		return nil, err
	}
	tradePlan.Ideas = ideas
	tradePlan.TotalExposurePct = totalPct

	if err := g.plans.Create(ctx, tradePlan); err != nil {
		return nil, fmt.Errorf("persisting plan: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"component":  "plan",
		"account_id": accountID,
		"plan_date":  date,
		"ideas":      len(ideas),
		"exposure":   totalPct,
	}).Info("trade plan generated")

	return tradePlan, nil
}

// buildIdeas sizes candidate ideas from the top-ranked strategies and caps
// aggregate exposure greedily in ranking order: each idea gets
// min(size, remaining); once a clipped size reaches zero the walk stops and
// later candidates are dropped entirely.
func (g *Generator) buildIdeas(
	ctx context.Context,
	ranked []RankEntry,
	regime *model.RegimeSnapshot,
	catalog map[string]connectors.CatalogStrategy,
) ([]model.TradeIdea, float64, error) {

	limit := g.cfg.MaxIdeas
	if limit > len(ranked) {
		limit = len(ranked)
	}

	scaleForRegime := regime != nil &&
		regime.TrendChop == model.RegimeChoppy &&
		regime.Volatility == model.RegimeVolExpanding

	var ideas []model.TradeIdea
	remaining := g.cfg.ExposureCapPct
	total := 0.0

	for _, entry := range ranked[:limit] {
		if remaining <= 0 {
			break
		}

		strategy, ok := catalog[entry.StrategyID]
		if !ok {
			continue
		}

		quote, err := g.quotes.GetQuote(ctx, strategy.Symbol)
		if err != nil {
			return nil, 0, fmt.Errorf("quoting %s: %w", strategy.Symbol, err)
		}

		sizePct := math.Min(strategy.RecommendedSizePct, g.cfg.MaxPositionPct)
		if scaleForRegime {
			sizePct *= g.cfg.ChoppyVolScale
		}

		allocated := math.Min(sizePct, remaining)
		if allocated <= 0 {
			break
		}
		remaining -= allocated
		total += allocated

		confidence := clamp(((strategy.BaseSignalScore+entry.AlignmentScore)/2)*(entry.CompositeScore/100), 0, 100)

		ideas = append(ideas, model.TradeIdea{
			IdeaID:         uuid.NewString(),
			Symbol:         strategy.Symbol,
			Side:           model.SideBuy,
			StrategyID:     entry.StrategyID,
			SizePct:        allocated,
			EntryPrice:     quote.Price,
			SignalScore:    strategy.BaseSignalScore,
			AlignmentScore: entry.AlignmentScore,
			Confidence:     confidence,
			Status:         model.IdeaStatusPending,
		})
	}

	return ideas, total, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
