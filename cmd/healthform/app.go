package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/goliatone/go-healthform/internal/config"
	"github.com/goliatone/go-healthform/internal/logger"
	"github.com/goliatone/go-healthform/pkg/model"
	"github.com/goliatone/go-healthform/pkg/render"
	"github.com/goliatone/go-healthform/pkg/submission"
)

type rootFlags struct {
	configFile string
	envFile    string
}

// app is the state every command starts from.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	schema     *model.Schema
	presenters *render.Registry
}

// flagKeys maps config keys to the flags that may override them.
var flagKeys = map[string]string{
	"logging.level":  "log-level",
	"logging.format": "log-format",
	"api.endpoint":   "endpoint",
	"api.timeout":    "timeout",
	"server.addr":    "addr",
}

func bootstrap(cmd *cobra.Command, flags *rootFlags) (*app, error) {
	bound := make(map[string]*pflag.Flag, len(flagKeys))
	for key, name := range flagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			bound[key] = flag
		}
	}

	cfg, err := config.Load(config.Options{
		File:    flags.configFile,
		EnvFile: flags.envFile,
		Flags:   bound,
	})
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	schema := model.Default()
	if cfg.Form.SchemaFile != "" {
		schema, err = model.LoadSchemaFile(cfg.Form.SchemaFile)
		if err != nil {
			return nil, err
		}
		log.Info("schema loaded", zap.String("file", cfg.Form.SchemaFile), zap.String("name", schema.Name()))
	}

	presenters, err := newPresenters()
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: log, schema: schema, presenters: presenters}, nil
}

func (a *app) client(observer submission.Observer) (*submission.Client, error) {
	options := []submission.Option{
		submission.WithTimeout(a.cfg.API.Timeout),
		submission.WithLogger(a.logger.Named("submission")),
	}
	if observer != nil {
		options = append(options, submission.WithObserver(observer))
	}
	client, err := submission.New(a.cfg.API.Endpoint, options...)
	if err != nil {
		return nil, fmt.Errorf("healthform: %w", err)
	}
	if err := client.CheckSchema(a.schema); err != nil {
		return nil, fmt.Errorf("healthform: form cannot be submitted: %w", err)
	}
	return client, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}
