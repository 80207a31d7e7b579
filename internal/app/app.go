package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/lottostack/draw-engine/internal/config"
	"github.com/lottostack/draw-engine/internal/infrastructure/docstore/memory"
	"github.com/lottostack/draw-engine/internal/infrastructure/docstore/postgres"
	"github.com/lottostack/draw-engine/internal/infrastructure/settlement"
	"github.com/lottostack/draw-engine/internal/interfaces/httpapi"
	"github.com/lottostack/draw-engine/internal/platform/docstore"
	idgen "github.com/lottostack/draw-engine/internal/platform/id"
	"github.com/lottostack/draw-engine/internal/platform/logging"
	"github.com/lottostack/draw-engine/internal/trigger"
	"github.com/lottostack/draw-engine/internal/usecase"
)

// Application holds the wired service graph for one process.
type Application struct {
	Server  *http.Server
	Trigger *trigger.CadenceTrigger

	db *sqlx.DB
}

// New wires the document store, services, HTTP server, and cadence trigger.
// With an empty DB_URL the in-memory store is used; settlement is then
// exactly-once per process only.
func New(cfg config.Config, logger *logging.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var (
		doc docstore.Store
		db  *sqlx.DB
	)
	if cfg.DBURL == "" {
		logger.Info("document store", "backend", "memory")
		doc = memory.NewStore()
	} else {
		dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
		conn, err := otelsqlx.Connect("postgres", dsn,
			otelsql.WithDBSystem("postgresql"),
			otelsql.WithDBName(dbNameFromURL(dsn)),
		)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info("document store", "backend", "postgres", "db_name", dbNameFromURL(dsn))
		doc = postgres.NewStore(conn)
		db = conn
	}

	store := settlement.NewStore(doc)
	ids := idgen.NewRandomGenerator()

	settlementSvc := usecase.NewSettlementService(store, ids, usecase.SettlementConfig{
		Cadence:      cfg.DrawCadence,
		StaleAfter:   cfg.DrawLockStaleAfter,
		ScoreWorkers: cfg.DrawScoreWorkers,
	}, logger)
	ticketSvc := usecase.NewTicketService(store, ids, logger)

	handler := httpapi.NewHandler(settlementSvc, ticketSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	var cadenceTrigger *trigger.CadenceTrigger
	if cfg.DrawCadenceTriggerEnabled {
		cadenceTrigger = trigger.NewCadenceTrigger(settlementSvc, ids, trigger.CadenceConfig{
			Cadence: cfg.DrawCadence,
		}, logger)
	}

	return &Application{
		Server:  server,
		Trigger: cadenceTrigger,
		db:      db,
	}, nil
}

func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}

	return a.db.Close()
}
