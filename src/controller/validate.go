package controller

import (
	"fmt"
	"math"
	"strings"

	"papertrader/src/model"
)

// maxQuantityDecimals bounds fractional share precision.
const maxQuantityDecimals = 6

// ValidationError rejects a malformed order before any side effect. The
// message is surfaced verbatim to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// OrderRequest is the normalized execution request.
type OrderRequest struct {
	AccountID        uint     `json:"account_id"`
	Symbol           string   `json:"symbol"`
	Side             string   `json:"side"`
	OrderType        string   `json:"order_type"`
	Quantity         float64  `json:"quantity"`
	LimitPrice       *float64 `json:"limit_price,omitempty"`
	MaxPricePerShare *float64 `json:"max_price_per_share,omitempty"`
	StrategyID       *string  `json:"strategy_id,omitempty"`
	RiskPerShare     *float64 `json:"risk_per_share,omitempty"`
	Confidence       *float64 `json:"confidence,omitempty"`
	Alignment        *float64 `json:"alignment,omitempty"`
	ExtendedHours    bool     `json:"extended_hours"`
}

// validate normalizes and checks the request fields. It mutates the request
// in place (symbol uppercasing, side/type lowercasing).
func validate(req *OrderRequest) error {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	req.Side = strings.ToLower(strings.TrimSpace(req.Side))
	req.OrderType = strings.ToLower(strings.TrimSpace(req.OrderType))

	if req.Symbol == "" {
		return &ValidationError{Field: "symbol", Message: "must not be empty"}
	}
	if req.Side != model.SideBuy && req.Side != model.SideSell {
		return &ValidationError{Field: "side", Message: "must be buy or sell"}
	}
	if req.OrderType == "" {
		req.OrderType = model.OrderTypeMarket
	}
	if req.OrderType != model.OrderTypeMarket && req.OrderType != model.OrderTypeLimit {
		return &ValidationError{Field: "order_type", Message: "must be market or limit"}
	}

	if math.IsNaN(req.Quantity) || math.IsInf(req.Quantity, 0) {
		return &ValidationError{Field: "quantity", Message: "must be a finite number"}
	}
	if req.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Message: "must be positive"}
	}
	scaled := req.Quantity * math.Pow10(maxQuantityDecimals)
	if math.Abs(scaled-math.Round(scaled)) > 1e-6 {
		return &ValidationError{Field: "quantity", Message: fmt.Sprintf("at most %d decimal places", maxQuantityDecimals)}
	}

	if req.OrderType == model.OrderTypeLimit {
		if req.LimitPrice == nil || *req.LimitPrice <= 0 {
			return &ValidationError{Field: "limit_price", Message: "limit orders require a positive limit price"}
		}
	}

	if req.MaxPricePerShare != nil {
		if req.Side != model.SideBuy {
			return &ValidationError{Field: "max_price_per_share", Message: "only valid for buy orders"}
		}
		if *req.MaxPricePerShare <= 0 {
			return &ValidationError{Field: "max_price_per_share", Message: "must be positive"}
		}
	}

	return nil
}
