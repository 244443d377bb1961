package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mwfilho/mcp-pdpj/internal/api"
	"github.com/mwfilho/mcp-pdpj/internal/pdpj"
	"github.com/mwfilho/mcp-pdpj/internal/rate"
	internalsecrets "github.com/mwfilho/mcp-pdpj/internal/secrets"
	"github.com/mwfilho/mcp-pdpj/pkg/config"
	"github.com/mwfilho/mcp-pdpj/pkg/logger"
	"github.com/mwfilho/mcp-pdpj/pkg/secrets"
	"github.com/mwfilho/mcp-pdpj/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Infof("starting [%s] v%s...", cfg.ServiceName, cfg.Version)

	if err := cfg.Validate(); err != nil {
		logg.Fatalw("invalid configuration", "error", err)
	}

	// --- SSO credentials: environment or AWS Secrets Manager ---
	stopCleaner := make(chan struct{})
	var creds pdpj.CredentialsProvider
	if cfg.UsesSecretsManager() {
		awsProvider, err := secrets.NewAWSProvider(ctx, cfg.AWSRegion)
		if err != nil {
			logg.Fatalw("failed to create AWS Secrets Manager provider", "error", err)
		}
		credsCache := secrets.NewCache[pdpj.Credentials](cfg.CacheTTL)
		go credsCache.StartCleaner(cfg.CleanupFreq, stopCleaner)

		creds = internalsecrets.NewAWSResolver(logger.L(), cfg.SecretName, awsProvider, credsCache)
		logg.Infow("credentials from AWS Secrets Manager", "secret", cfg.SecretName, "region", cfg.AWSRegion)
	} else {
		creds = pdpj.StaticCredentials{
			ClientID: cfg.ClientID,
			Username: cfg.CPF,
			Password: cfg.Senha,
		}
		logg.Infow("credentials from environment", "client_id", cfg.ClientID, "cpf", utils.MaskCPF(cfg.CPF))
	}

	// --- Rate limiter ---
	rateMgr := rate.NewManager(rate.Config{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})

	// --- PDPJ token manager ---
	tokenMgr := pdpj.NewTokenManager(logger.L(), cfg.TokenURL, creds,
		pdpj.WithHTTPClient(&http.Client{Timeout: cfg.AuthTimeout}),
		pdpj.WithExpiryMargin(cfg.TokenMargin),
	)

	// --- PDPJ HTTP client ---
	pdpjClient := pdpj.NewClient(logger.L(), cfg.BaseURL, tokenMgr, rateMgr,
		&http.Client{Timeout: cfg.UpstreamTimeout})

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		AppName:               cfg.ServiceName,
		ReadTimeout:           cfg.HTTPReadTimeout,
		WriteTimeout:          cfg.HTTPWriteTimeout,
		IdleTimeout:           cfg.HTTPIdleTimeout,
		BodyLimit:             cfg.HTTPBodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          api.ErrorHandler(logger.L()),
	})
	app.Use(recover.New())

	// Closed on shutdown so open SSE streams end and the server can drain.
	sseDone := make(chan struct{})

	processHandler := api.NewProcessHandler(logger.L(), pdpjClient)
	sseHandler := api.NewSSEHandler(logger.L(), pdpjClient, cfg.SSEHeartbeatInterval, sseDone)

	api.RegisterRoutes(app, api.NewServiceInfo(cfg.Version), processHandler, sseHandler)

	// Start HTTP server
	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("["+cfg.ServiceName+"] running",
		"env", cfg.Env,
		"base_url", cfg.BaseURL,
		"token_url", cfg.TokenURL,
		"heartbeat", cfg.SSEHeartbeatInterval)

	<-ctx.Done()
	logg.Infof("shutting down [%s]...", cfg.ServiceName)

	close(sseDone)
	close(stopCleaner)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
}
