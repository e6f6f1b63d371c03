// Package bootstrap wires the outbound adapters into a ready-to-run engine
// for the inbound adapters (CLI and protocol server).
package bootstrap

import (
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/abdidvp/patchgate/internal/adapters/outbound/config"
	"github.com/abdidvp/patchgate/internal/adapters/outbound/fsaccess"
	"github.com/abdidvp/patchgate/internal/adapters/outbound/gitinfo"
	"github.com/abdidvp/patchgate/internal/adapters/outbound/jsparser"
	"github.com/abdidvp/patchgate/internal/adapters/outbound/loader"
	"github.com/abdidvp/patchgate/internal/adapters/outbound/secrets"
	"github.com/abdidvp/patchgate/internal/application"
	"github.com/abdidvp/patchgate/internal/domain"
	"github.com/abdidvp/patchgate/internal/domain/fixers"
	"github.com/abdidvp/patchgate/internal/domain/validator"
	"github.com/abdidvp/patchgate/internal/logging"
)

// Options override what .patchgate.yaml says.
type Options struct {
	// Truthpack is a path relative to the project root, or absolute.
	Truthpack string
	LogLevel  string
	// LogOutput defaults to stderr.
	LogOutput io.Writer
}

// Engine is a configured fix service for one project.
type Engine struct {
	Root      string
	Config    domain.ProjectConfig
	Truthpack *domain.Truthpack
	Service   *application.FixService
	Logger    *zap.Logger
}

// New loads the project configuration and truthpack and assembles the engine.
func New(projectPath string, opts Options) (*Engine, error) {
	root, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	// 1. Configuration
	cfg, err := config.New().Load(root)
	if err != nil {
		return nil, err
	}

	// 2. Logger
	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Config{Level: level, Format: cfg.Log.Format, Output: opts.LogOutput})
	if err != nil {
		return nil, err
	}

	// 3. Truthpack
	tpPath := cfg.Truthpack
	if opts.Truthpack != "" {
		tpPath = opts.Truthpack
	}
	if !filepath.IsAbs(tpPath) {
		tpPath = filepath.Join(root, tpPath)
	}
	tp, err := loader.LoadTruthpack(tpPath)
	if err != nil {
		return nil, fmt.Errorf("loading truthpack: %w", err)
	}
	if tp == nil {
		logger.Debug("no truthpack found", zap.String("path", tpPath))
	}

	// 4. Adapters
	files, err := fsaccess.New(root)
	if err != nil {
		return nil, err
	}
	registry := fixers.Default(jsparser.New()).Without(cfg.DisabledModules...)

	svc := application.NewFixService(application.FixServiceConfig{
		ProjectRoot: root,
		Files:       files,
		Registry:    registry,
		Validator:   validator.New(secrets.New(logger)),
		Truthpack:   tp,
		Git:         gitinfo.New(),
		Logger:      logger,
	})

	return &Engine{
		Root:      root,
		Config:    cfg,
		Truthpack: tp,
		Service:   svc,
		Logger:    logger,
	}, nil
}

// AllModules lists every built-in module, including disabled ones.
func AllModules() []domain.FixModule {
	return fixers.Default(jsparser.New()).Modules()
}
