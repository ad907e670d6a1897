package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/stylus/internal/api"
	"github.com/debemdeboas/stylus/internal/config"
	"github.com/debemdeboas/stylus/internal/db"
	"github.com/debemdeboas/stylus/internal/draft"
	"github.com/debemdeboas/stylus/internal/grammar"
	"github.com/debemdeboas/stylus/internal/listing"
	"github.com/debemdeboas/stylus/internal/logger"
	"github.com/debemdeboas/stylus/internal/metrics"
	"github.com/debemdeboas/stylus/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded")
	}

	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig

	l := logger.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	setLoggers(l)

	m := metrics.New()

	store, closeStore, err := openStore(cfg.Database)
	if err != nil {
		l.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open draft store")
	}
	defer closeStore()

	drafts := draft.NewLive(store)
	m.RegisterGaugeFunc("drafts_stored", "Drafts currently persisted", func() float64 {
		all, err := store.List(context.Background())
		if err != nil {
			return 0
		}
		return float64(len(all))
	})

	client, err := grammar.NewClient(grammar.Options{
		BaseURL:           cfg.Grammar.BaseURL,
		CorrectPath:       cfg.Grammar.CorrectPath,
		ConnectTimeout:    cfg.Grammar.ConnectTimeout,
		ReadTimeout:       cfg.Grammar.ReadTimeout,
		WriteTimeout:      cfg.Grammar.WriteTimeout,
		RequestTimeout:    cfg.Grammar.RequestTimeout,
		RequestsPerSecond: cfg.Grammar.RequestsPerSecond,
		Metrics:           m,
	})
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to create grammar client")
	}

	loc, err := cfg.Location()
	if err != nil {
		l.Fatal().Err(err).Str("timezone", cfg.Drafts.Timezone).Msg("Failed to load timezone")
	}

	list := listing.NewController(drafts, listing.Options{
		PreviewLength: cfg.Drafts.ListPreviewLength,
		DateLayout:    cfg.Drafts.DateFormat,
		Location:      loc,
		Metrics:       m,
	})

	srv := api.NewServer(drafts, list, client, api.Options{
		SessionTTL: cfg.Server.SessionTTL,
		Session: session.Options{
			Language:      cfg.Grammar.Language,
			PreviewLength: cfg.Drafts.SavePreviewLength,
		},
		Metrics: m,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Open event streams end when the process is asked to stop.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			l.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	l.Info().
		Str("addr", cfg.Addr()).
		Str("grammar_endpoint", client.Endpoint()).
		Str("database", cfg.Database.Driver).
		Msg("Server starting")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Fatal().Err(err).Msg("Server failed")
	}
	l.Info().Msg("Server stopped")
}

func setLoggers(l zerolog.Logger) {
	config.SetLogger(l.With().Str("component", "config").Logger())
	db.SetLogger(l.With().Str("component", "db").Logger())
	draft.SetLogger(l.With().Str("component", "draft").Logger())
	grammar.SetLogger(l.With().Str("component", "grammar").Logger())
	session.SetLogger(l.With().Str("component", "session").Logger())
	listing.SetLogger(l.With().Str("component", "listing").Logger())
	api.SetLogger(l.With().Str("component", "api").Logger())
}

// openStore returns the configured draft store and a function releasing it.
func openStore(cfg config.DatabaseConfig) (draft.Store, func(), error) {
	if cfg.Driver == config.DriverMemory {
		return draft.NewMemoryStore(), func() {}, nil
	}

	conn := db.NewSQLite(cfg.Path)
	if err := conn.InitDB(); err != nil {
		return nil, nil, err
	}
	return draft.NewSQLStore(conn), func() { conn.Close() }, nil
}
