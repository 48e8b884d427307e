// Command migrate copies every mapping from one table into another.
//
// Moving a legacy hash+range table to the single-key layout takes two runs:
//
//	SOURCE_TABLE=short SOURCE_SCHEMA=hash+range TARGET_TABLE=short_tmp TARGET_SCHEMA=hash+range migrate
//	# delete and recreate "short" by hand
//	SOURCE_TABLE=short_tmp SOURCE_SCHEMA=hash+range TARGET_TABLE=short TARGET_SCHEMA=hash migrate
//
// The intermediate table is not removed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/serroba/shorturl/internal/container"
	"github.com/serroba/shorturl/internal/migrate"
	"github.com/serroba/shorturl/internal/store"
	"go.uber.org/zap"
)

type config struct {
	Backend        string `env:"BACKEND"         envDefault:"dynamodb"`
	DatabaseURL    string `env:"DATABASE_URL"`
	RedisAddr      string `env:"REDIS_ADDR"      envDefault:"localhost:6379"`
	AWSRegion      string `env:"AWS_REGION"      envDefault:"us-east-1"`
	DynamoEndpoint string `env:"DYNAMO_ENDPOINT"`

	SourceTable  string `env:"SOURCE_TABLE,required"`
	SourceSchema string `env:"SOURCE_SCHEMA"  envDefault:"hash+range"`
	TargetTable  string `env:"TARGET_TABLE,required"`
	TargetSchema string `env:"TARGET_SCHEMA"  envDefault:"hash"`

	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

func parseSchema(s string) (store.KeySchema, error) {
	switch s {
	case store.KeySchemaHash.String():
		return store.KeySchemaHash, nil
	case store.KeySchemaHashRange.String():
		return store.KeySchemaHashRange, nil
	}

	return 0, fmt.Errorf("unknown key schema %q", s)
}

func run(ctx context.Context, cfg config, logger *zap.Logger) (migrate.Report, error) {
	if cfg.SourceTable == cfg.TargetTable {
		return migrate.Report{}, errors.New("source and target tables must differ")
	}

	sourceSchema, err := parseSchema(cfg.SourceSchema)
	if err != nil {
		return migrate.Report{}, err
	}

	targetSchema, err := parseSchema(cfg.TargetSchema)
	if err != nil {
		return migrate.Report{}, err
	}

	factory, err := store.NewFactory(ctx, store.BackendConfig{
		Backend:        store.Backend(cfg.Backend),
		DatabaseURL:    cfg.DatabaseURL,
		RedisAddr:      cfg.RedisAddr,
		AWSRegion:      cfg.AWSRegion,
		DynamoEndpoint: cfg.DynamoEndpoint,
	})
	if err != nil {
		return migrate.Report{}, err
	}

	defer func() {
		if err := factory.Shutdown(); err != nil {
			logger.Error("backend shutdown error", zap.Error(err))
		}
	}()

	source, err := factory.Open(cfg.SourceTable, sourceSchema)
	if err != nil {
		return migrate.Report{}, err
	}

	target, err := factory.Open(cfg.TargetTable, targetSchema)
	if err != nil {
		return migrate.Report{}, err
	}

	logger.Info("migrating",
		zap.String("backend", cfg.Backend),
		zap.String("source", cfg.SourceTable),
		zap.Stringer("source_schema", sourceSchema),
		zap.String("target", cfg.TargetTable),
		zap.Stringer("target_schema", targetSchema),
	)

	return migrate.New(source, target, logger).Run(ctx)
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger, err := container.NewLogger(cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := run(ctx, cfg, logger)
	if err != nil {
		logger.Error("migration failed", zap.Error(err), zap.Stringer("report", report))
		os.Exit(1)
	}

	logger.Info("migration complete", zap.Stringer("report", report))

	if report.Failed > 0 {
		os.Exit(1)
	}
}
