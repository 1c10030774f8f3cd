package controller

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	SlippageBps        int64   `envconfig:"SLIPPAGE_BPS" default:"5"`
	CommissionPerTrade float64 `envconfig:"COMMISSION_PER_TRADE" default:"0"`
	StartingCash       float64 `envconfig:"ACCOUNT_STARTING_CASH" default:"100000"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
