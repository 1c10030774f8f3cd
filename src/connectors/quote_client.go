package connectors

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
)

// ErrQuoteUnavailable marks a data-unavailable condition: the operation must
// abort without side effects, distinct from a generic failure.
var ErrQuoteUnavailable = errors.New("quote unavailable")

// Quote is the latest trade price for one symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// QuoteService is the market-data collaborator contract.
type QuoteService interface {
	GetQuotes(ctx context.Context, symbols []string) ([]Quote, error)
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
}

// QuoteClient fetches quotes over HTTP when a base URL is configured and
// falls back to deterministic synthetic quotes otherwise, so the engine runs
// without market-data credentials.
type QuoteClient struct {
	baseURL string
	apiKey  string
	http    *resty.Client
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	return r.StatusCode() == 429 || r.StatusCode() >= 500
}

// NewQuoteClient builds a quote client from config. An empty QuoteBaseURL
// selects the synthetic provider.
func NewQuoteClient(cfg Config) *QuoteClient {
	httpClient := resty.New().
		SetTimeout(cfg.QuoteTimeout).
		SetRetryCount(cfg.QuoteRetries).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(isRetryableResp)

	if cfg.QuoteBaseURL == "" {
		logger.Warn("QUOTE_BASE_URL not set, serving synthetic quotes")
	}

	return &QuoteClient{
		baseURL: cfg.QuoteBaseURL,
		apiKey:  cfg.QuoteAPIKey,
		http:    httpClient,
	}
}

type quoteResponse struct {
	Quotes []Quote `json:"quotes"`
	Error  string  `json:"error,omitempty"`
}

func (c *QuoteClient) GetQuotes(ctx context.Context, symbols []string) ([]Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	if c.baseURL == "" {
		return syntheticQuotes(symbols), nil
	}

	var body quoteResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Api-Key", c.apiKey).
		SetQueryParam("symbols", strings.Join(symbols, ",")).
		SetResult(&body).
		Get(c.baseURL + "/v1/quotes")

	if err != nil {
		logger.WithError(err).Error("failed to fetch quotes")
		return nil, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}
	if resp.IsError() {
		logger.WithFields(map[string]interface{}{
			"status": resp.StatusCode(),
			"error":  body.Error,
		}).Error("quote provider returned an error")
		return nil, fmt.Errorf("%w: status %d", ErrQuoteUnavailable, resp.StatusCode())
	}
	if len(body.Quotes) == 0 {
		return nil, ErrQuoteUnavailable
	}

	return body.Quotes, nil
}

func (c *QuoteClient) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	quotes, err := c.GetQuotes(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	for i := range quotes {
		if strings.EqualFold(quotes[i].Symbol, symbol) {
			return &quotes[i], nil
		}
	}
	return nil, ErrQuoteUnavailable
}

// syntheticQuotes derives a stable pseudo price per symbol so repeated calls
// inside one day agree with each other.
func syntheticQuotes(symbols []string) []Quote {
	day := time.Now().UTC().Format("2006-01-02")
	quotes := make([]Quote, 0, len(symbols))
	for _, symbol := range symbols {
		s := strings.ToUpper(strings.TrimSpace(symbol))

		base := fnv.New32a()
		base.Write([]byte(s))
		price := 20 + float64(base.Sum32()%48000)/100

		drift := fnv.New32a()
		drift.Write([]byte(s + day))
		changePct := float64(int32(drift.Sum32()%500)-250) / 100

		quotes = append(quotes, Quote{
			Symbol:        s,
			Price:         price,
			Change:        price * changePct / 100,
			ChangePercent: changePct,
		})
	}
	return quotes
}
