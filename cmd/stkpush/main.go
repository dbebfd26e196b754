package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kevin07696/mpesa-stk/internal/adapters/database"
	"github.com/kevin07696/mpesa-stk/internal/adapters/mpesa"
	"github.com/kevin07696/mpesa-stk/internal/adapters/ports"
	"github.com/kevin07696/mpesa-stk/internal/adapters/postgres"
	"github.com/kevin07696/mpesa-stk/internal/adapters/transport"
	"github.com/kevin07696/mpesa-stk/internal/config"
	"github.com/kevin07696/mpesa-stk/internal/domain"
)

type options struct {
	configFile  string
	requestFile string
	tokenOnly   bool
	timeout     time.Duration
	save        bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configFile, "config", "", "JSON credentials file (default: MPESA_* environment variables)")
	flag.StringVar(&opts.requestFile, "request", "", "JSON STK Push request file")
	flag.BoolVar(&opts.tokenOnly, "token-only", false, "Fetch an access token and exit")
	flag.DurationVar(&opts.timeout, "timeout", 60*time.Second, "Maximum time to wait for the acknowledgement")
	flag.BoolVar(&opts.save, "save", false, "Record the acknowledgement in DATABASE_URL")
	flag.Parse()

	if !opts.tokenOnly && opts.requestFile == "" {
		fmt.Println("Usage: stkpush -request=<file> [-config=<file>] [-timeout=60s] [-save]")
		fmt.Println("       stkpush -token-only [-config=<file>]")
		os.Exit(2)
	}

	logger, err := initLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), opts, os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", domain.GetErrorCode(err), err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer, logger *zap.Logger) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	if opts.configFile != "" {
		auth, err := config.LoadAuthConfigFromFile(opts.configFile)
		if err != nil {
			return err
		}
		cfg.MPesa.ConsumerKey = auth.ConsumerKey
		cfg.MPesa.ConsumerSecret = auth.ConsumerSecret
		cfg.MPesa.Passkey = auth.Passkey
		cfg.MPesa.Environment = auth.Environment
	} else {
		sm, err := config.NewSecretManager(ctx, cfg.Secrets, logger)
		if err != nil {
			return err
		}
		if err := config.ResolveCredentials(ctx, &cfg.MPesa, sm); err != nil {
			return err
		}
	}
	if err := cfg.MPesa.Validate(); err != nil {
		return err
	}

	httpTransport := transport.NewHTTPTransport(&transport.Config{Timeout: cfg.MPesa.Timeout}, logger)
	defer func() { _ = httpTransport.Close() }()

	tokens := mpesa.NewTokenManager(cfg.MPesa.AuthConfig(), cfg.MPesa.ClientConfig(), httpTransport, logger)

	if opts.tokenOnly {
		token, err := tokens.GetToken(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Access token obtained")
		fmt.Fprintf(out, "Token: %s...\n", token[:min(10, len(token))])
		return nil
	}

	req, err := config.LoadPaymentRequestFromFile(opts.requestFile)
	if err != nil {
		return err
	}

	client := mpesa.NewSTKPushClient(tokens, httpTransport, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Close(closeCtx)
	}()

	pending := client.Dispatch(ctx, *req)

	waitCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	ack, err := pending.Wait(waitCtx)
	if err != nil {
		if waitCtx.Err() != nil {
			return domain.WrapError(domain.ErrorCodeTimeoutError, "timed out waiting for STK push acknowledgement", err)
		}
		return err
	}

	if opts.save {
		if err := saveAck(ctx, cfg.Database, pending.ID(), req, ack, logger); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(ack)
}

func saveAck(ctx context.Context, dbCfg config.DatabaseConfig, dispatchID string, req *domain.PaymentRequest, ack *domain.PaymentAck, logger *zap.Logger) error {
	if !dbCfg.Enabled() {
		return domain.NewDomainError(domain.ErrorCodeConfigError, "-save requires DATABASE_URL")
	}

	pgCfg := database.DefaultPostgreSQLConfig(dbCfg.URL)
	pgCfg.MaxConns = 2
	db, err := database.NewPostgreSQLAdapter(ctx, pgCfg, logger)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeConfigError, "failed to connect to database", err)
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db.Pool()); err != nil {
		return err
	}
	var repo ports.PushRepository = postgres.NewPushRepository(db.Pool(), logger)
	return repo.SaveAck(ctx, dispatchID, req, ack)
}

func initLogger() (*zap.Logger, error) {
	return buildLogger(loggerConfig())
}

func loggerConfig() zap.Config {
	level := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		level = parsed
	}

	zapCfg := zap.NewDevelopmentConfig()
	if os.Getenv("ENVIRONMENT") == "production" {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg
}

func buildLogger(zapCfg zap.Config) (*zap.Logger, error) {
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
