package bootstrap

import (
	"time"

	"github.com/melitools/melisync/internal/bulk"
	"github.com/melitools/melisync/internal/conf"
	"github.com/melitools/melisync/internal/erp"
	"github.com/melitools/melisync/internal/mlapi"
	"github.com/melitools/melisync/internal/scrape"
	"github.com/melitools/melisync/internal/worker"
)

// Workers is the process-wide loop registry, populated by InitWorkers and
// started by the serve command.
var Workers = worker.NewRegistry()

// InitWorkers builds the shared clients, the bulk orchestrator and one
// loop per task type. AD_REPROCESS and the tech-specs types stay
// unregistered: tasks of those types can be enqueued but no loop claims
// them yet.
func InitWorkers() {
	ml := mlapi.NewClient(conf.Conf.MarketplaceBaseURL, conf.Conf.UserAgent)
	erpClient := erp.NewClient(conf.Conf.ERPBaseURL, conf.Conf.ERPToken, conf.Conf.UserAgent, conf.Conf.ERPDepositID)
	fetcher := scrape.NewFetcher()

	orchestrator := bulk.NewOrchestrator(
		ml,
		&worker.ERPStock{Client: erpClient, SumReserves: conf.Conf.SumReserves},
		&worker.RuleCalculator{Client: erpClient},
		worker.DBFixedPrices{},
		worker.DBProfiles{},
		worker.DBHistory{},
		worker.DBAccounts{},
	)

	handlers := []worker.Handler{
		&worker.BulkHandler{Orchestrator: orchestrator, ML: ml},
		&worker.PriceCheckHandler{ML: ml, ERP: erpClient},
		&worker.AutoPromoHandler{ML: ml},
		&worker.PromoActivationHandler{ML: ml},
		&worker.StockDivergenceHandler{ML: ml, ERP: erpClient, SumReserves: conf.Conf.SumReserves},
		&worker.AdFetchHandler{Fetcher: fetcher},
	}
	for _, h := range handlers {
		l := worker.NewLoop(h)
		l.Interval = time.Duration(conf.Conf.WorkerIntervalSecs) * time.Second
		l.BatchSize = conf.Conf.WorkerBatchSize
		l.Pause = time.Duration(conf.Conf.WorkerPauseMS) * time.Millisecond
		Workers.Register(l)
	}
}
