package conf

import (
	"github.com/caarlos0/env/v9"
	"github.com/pkg/errors"
)

type Config struct {
	DBFile   string `env:"MELISYNC_DB_FILE" envDefault:"data/melisync.db"`
	HTTPPort int    `env:"MELISYNC_PORT" envDefault:"8080"`

	LogLevel string `env:"MELISYNC_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"MELISYNC_LOG_FILE" envDefault:"data/log/melisync.log"`

	MarketplaceBaseURL string `env:"MELISYNC_ML_BASE_URL" envDefault:"https://api.mercadolibre.com"`
	ERPBaseURL         string `env:"MELISYNC_ERP_BASE_URL" envDefault:"https://api.tiny.com.br/public-api/v3"`
	ERPToken           string `env:"MELISYNC_ERP_TOKEN"`
	ERPDepositID       int64  `env:"MELISYNC_ERP_DEPOSIT_ID"`
	UserAgent          string `env:"MELISYNC_USER_AGENT" envDefault:"melisync/1.0"`

	// SumReserves switches ERP stock lookups from the available balance to
	// the physical balance (reserved units included).
	SumReserves bool `env:"MELISYNC_ERP_SUM_RESERVES" envDefault:"false"`

	WorkerBatchSize    int `env:"MELISYNC_WORKER_BATCH" envDefault:"10"`
	WorkerPauseMS      int `env:"MELISYNC_WORKER_PAUSE_MS" envDefault:"500"`
	WorkerIntervalSecs int `env:"MELISYNC_WORKER_INTERVAL_SECS" envDefault:"30"`
}

var Conf = &Config{}

func Load() error {
	if err := env.Parse(Conf); err != nil {
		return errors.Wrap(err, "failed to parse environment config")
	}
	return nil
}
