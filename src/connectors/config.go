package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	QuoteBaseURL    string        `envconfig:"QUOTE_BASE_URL"`
	QuoteAPIKey     string        `envconfig:"QUOTE_API_KEY"`
	QuoteTimeout    time.Duration `envconfig:"QUOTE_TIMEOUT" default:"5s"`
	QuoteRetries    int           `envconfig:"QUOTE_RETRIES" default:"3"`
	NotifyBaseURL   string        `envconfig:"NOTIFY_BASE_URL"`
	NotifyTimeout   time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"5s"`
	RegimeSymbol    string        `envconfig:"REGIME_SYMBOL" default:"SPY"`
	RegimeVolSymbol string        `envconfig:"REGIME_VOL_SYMBOL" default:"VIXY"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
