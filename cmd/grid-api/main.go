package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ducminhle1904/crypto-grid-sim/cmd/common"
	"github.com/ducminhle1904/crypto-grid-sim/internal/api"
	apperrors "github.com/ducminhle1904/crypto-grid-sim/internal/errors"
	"github.com/ducminhle1904/crypto-grid-sim/internal/logger"
	"github.com/ducminhle1904/crypto-grid-sim/internal/monitoring"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/config"
)

const appName = "grid-api"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := common.RegisterCommonFlags(fs)
	port := fs.String("port", "", "Listen port (default: API_PORT or 8080)")

	usage := common.NewUsageFormatter(appName, "Serve grid simulations, sweeps and price data over HTTP").
		AddExample("API_PORT=9000 DATA_SOURCE=bybit PRICE_CACHE=redis "+appName, "Serve Bybit prices behind a Redis cache").
		AddExample(appName+" -port 8080 -env .env.local", "Serve the local CSV archive")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if common.CheckHelpAndVersion(stdout, appName, flags, usage, fs) {
		return 0
	}

	out := common.SetupLogger(flags)
	out.Out = stdout
	env := common.NewEnvLoader(out)
	_ = env.LoadEnvFile(*flags.EnvFile)

	logCfg := logger.ConfigFromEnv()
	if level := common.LogLevelName(flags); level != "" {
		logCfg.Level = level
	}
	log, err := logger.New(logCfg)
	if err != nil {
		out.Error("%v", err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	if err := serve(ctx, env, *port, log); err != nil {
		appErr := apperrors.Categorize(err, appName, "serve")
		log.Error("API stopped with error", zap.String("category", string(appErr.Category)), zap.Error(err))
		out.Error("%v", err)
		return appErr.ExitCode()
	}
	return 0
}

// dataConfig reads the data stack settings from the environment
func dataConfig(env *common.EnvLoader) (config.DataConfig, error) {
	cfg := &config.SimulationConfig{}
	env.ApplyDataEnv(&cfg.Data)
	cfg.Data.File = env.GetEnvWithDefault("DATA_FILE", "")
	if raw := env.GetEnvWithDefault("PRICE_CACHE_TTL", ""); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return config.DataConfig{}, fmt.Errorf("invalid PRICE_CACHE_TTL %q: %w", raw, err)
		}
		cfg.Data.CacheTTL = ttl
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return config.DataConfig{}, err
	}
	return cfg.Data, nil
}

// serverConfig reads the HTTP settings from the environment
func serverConfig(env *common.EnvLoader, port string) api.Config {
	cfg := api.DefaultConfig()
	cfg.Port = env.GetEnvWithDefault("API_PORT", cfg.Port)
	if port != "" {
		cfg.Port = port
	}
	cfg.Release = env.GetEnvWithDefault("API_ENV", "") == "production"
	cfg.Workers = env.GetEnvInt("SWEEP_WORKERS", 0)
	cfg.MaxSweepConfigs = env.GetEnvInt("MAX_SWEEP_CONFIGS", cfg.MaxSweepConfigs)
	if origins := env.GetEnvWithDefault("CORS_ORIGINS", ""); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}
	return cfg
}

func serve(ctx context.Context, env *common.EnvLoader, port string, log *zap.Logger) error {
	dataCfg, err := dataConfig(env)
	if err != nil {
		return err
	}

	stack, err := dataCfg.OpenDataStack(ctx, env.Connections(), log)
	if err != nil {
		return err
	}
	defer stack.Close()

	health := monitoring.NewHealthChecker(common.GetFullVersion())
	for name, check := range stack.Checks {
		health.Register(name, check)
	}

	srvCfg := serverConfig(env, port)
	log.Info("starting grid simulation API",
		zap.String("version", common.GetFullVersion()),
		zap.String("port", srvCfg.Port),
		zap.String("source", dataCfg.Source),
		zap.String("cache", dataCfg.Cache))

	return api.NewServer(srvCfg, stack.Provider, health, log).Run(ctx)
}
