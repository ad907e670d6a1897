// Command export snapshots every draft to a local directory or an
// S3-compatible bucket, or restores a snapshot with -restore.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/debemdeboas/stylus/internal/backup"
	"github.com/debemdeboas/stylus/internal/config"
	"github.com/debemdeboas/stylus/internal/db"
	"github.com/debemdeboas/stylus/internal/draft"
	"github.com/debemdeboas/stylus/internal/logger"
	"github.com/debemdeboas/stylus/internal/util/compression"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	dir := flag.String("dir", "", "Write to this local directory instead of the configured bucket")
	codecName := flag.String("compression", compression.Zstd, "Snapshot compression: zstd or gzip")
	restoreKey := flag.String("restore", "", "Restore the snapshot with this key instead of exporting")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	backup.SetLogger(l)
	db.SetLogger(l)

	if cfg.Database.Driver != config.DriverSQLite {
		l.Fatal().Str("driver", cfg.Database.Driver).Msg("Export needs the sqlite driver")
	}

	codec, err := compression.ByName(*codecName)
	if err != nil {
		l.Fatal().Err(err).Msg("Invalid compression")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conn := db.NewSQLite(cfg.Database.Path)
	if err := conn.InitDB(); err != nil {
		l.Fatal().Err(err).Msg("Failed to open database")
	}
	defer conn.Close()

	sink, err := openSink(ctx, *dir, cfg.Backup)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to open backup destination")
	}

	exporter := backup.NewExporter(draft.NewSQLStore(conn), codec, cfg.Backup.Prefix)

	if *restoreKey != "" {
		n, err := exporter.Restore(ctx, sink, *restoreKey)
		if err != nil {
			l.Fatal().Err(err).Int("restored", n).Msg("Restore failed")
		}
		l.Info().Int("drafts", n).Str("key", *restoreKey).Msg("Restore complete")
		return
	}

	key, err := exporter.Export(ctx, sink)
	if err != nil {
		l.Fatal().Err(err).Msg("Export failed")
	}
	l.Info().Str("key", key).Msg("Export complete")
}

func openSink(ctx context.Context, dir string, cfg config.BackupConfig) (backup.Sink, error) {
	if dir != "" {
		return backup.FileSink{Dir: dir}, nil
	}
	if cfg.Bucket == "" {
		return nil, errNoDestination
	}

	client, err := backup.NewS3Client(ctx, backup.S3Options{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     os.Getenv("STYLUS_BACKUP_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("STYLUS_BACKUP_SECRET_ACCESS_KEY"),
	})
	if err != nil {
		return nil, err
	}
	return backup.NewS3Sink(client, cfg.Bucket), nil
}
