// Copyright 2026 The LexCore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexcore/lexcore/internal/actor"
	"github.com/lexcore/lexcore/internal/audit"
	"github.com/lexcore/lexcore/internal/config"
	"github.com/lexcore/lexcore/internal/firm"
	"github.com/lexcore/lexcore/internal/grant"
	"github.com/lexcore/lexcore/internal/isolation"
	"github.com/lexcore/lexcore/internal/observability/logger"
	"github.com/lexcore/lexcore/internal/observability/metrics"
	"github.com/lexcore/lexcore/internal/observability/tracing"
	"github.com/lexcore/lexcore/internal/permission"
	"github.com/lexcore/lexcore/internal/store/postgres"
	"github.com/lexcore/lexcore/internal/store/rediscache"
	transportHTTP "github.com/lexcore/lexcore/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting lexcore tenant core")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if len(os.Args) > 1 && os.Args[1] == "bootstrap" {
		if err := runBootstrap(cfg); err != nil {
			fmt.Printf("Bootstrap failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if len(os.Args) > 1 && os.Args[1] == "cleanup-grants" {
		if err := runGrantSweep(cfg); err != nil {
			fmt.Printf("Grant sweep failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	// Initialize database
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Initialize repositories
	firmRepo := postgres.NewFirmRepository(db)
	memberRepo := postgres.NewMemberRepository(db)

	var grantStore grant.Store = postgres.NewGrantRepository(db)
	grantCache, err := rediscache.New(ctx, grantStore, rediscache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
	})
	if err != nil {
		// Grants still work without the cache, just slower.
		slog.Warn("redis unavailable, grant lookups will hit postgres directly", logger.Error(err))
	} else {
		defer grantCache.Close()
		grantStore = grantCache
	}

	// Initialize services
	auditLogger := audit.NewSlogLogger()
	firmService := firm.NewService(firmRepo, memberRepo, auditLogger)
	grantService := grant.NewService(grantStore, memberRepo, auditLogger)
	resolver := actor.NewResolver(memberRepo, grantStore)

	violations, err := metrics.NewViolationCounter(meter)
	if err != nil {
		slog.Error("failed to create violation counter", logger.Error(err))
		os.Exit(1)
	}
	enforcer := isolation.NewEnforcer(auditLogger, violations)

	// Rate Limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(
		firmService,
		grantService,
		resolver,
		enforcer,
		auditLogger,
		cfg.Security.JWTSecret,
		cfg.Security.JWTIssuer,
	)

	router := transportHTTP.NewRouter(handler, rateLimiter)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying initial schema...")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}

// runBootstrap seeds the first firm and its owner from environment
// variables. Idempotent: an existing membership is left alone.
func runBootstrap(cfg *config.Config) error {
	firmName := os.Getenv("BOOTSTRAP_FIRM_NAME")
	ownerUserID := os.Getenv("BOOTSTRAP_OWNER_USER_ID")
	if firmName == "" || ownerUserID == "" {
		return fmt.Errorf("BOOTSTRAP_FIRM_NAME and BOOTSTRAP_OWNER_USER_ID are required")
	}
	tier := os.Getenv("BOOTSTRAP_FIRM_TIER")
	if tier == "" {
		tier = firm.TierTeam
	}

	ctx := context.Background()
	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	auditLogger := audit.NewSlogLogger()
	svc := firm.NewService(postgres.NewFirmRepository(db), postgres.NewMemberRepository(db), auditLogger)

	f, err := svc.CreateFirm(ctx, firmName, tier)
	if err != nil {
		return fmt.Errorf("failed to create firm: %w", err)
	}

	m, err := svc.AddMember(ctx, f.ID, ownerUserID, permission.RoleOwner, "bootstrap")
	if err != nil {
		return fmt.Errorf("failed to add owner: %w", err)
	}
	if _, err := svc.ChangeStatus(ctx, m.ID, permission.StatusActive, "bootstrap"); err != nil {
		return fmt.Errorf("failed to activate owner: %w", err)
	}

	fmt.Printf("Bootstrapped firm %s with owner member %s\n", f.ID, m.ID)
	return nil
}

// runGrantSweep revokes every grant still held by terminated members. The
// sweep walks all firms, so it runs under the isolation bypass: the token in
// SECURITY_BYPASS_TOKEN must verify against the configured hash before a
// single grant is touched.
func runGrantSweep(cfg *config.Config) error {
	if cfg.Security.BypassTokenHash == "" {
		return fmt.Errorf("SECURITY_BYPASS_TOKEN_HASH is not set, bypass is disabled")
	}
	sys, err := isolation.NewSystemContext(
		"cleanup-grants",
		"revoke grants held by terminated members",
		os.Getenv("SECURITY_BYPASS_TOKEN"),
		cfg.Security.BypassTokenHash,
	)
	if err != nil {
		return fmt.Errorf("bypass credential rejected: %w", err)
	}

	ctx := context.Background()
	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	auditLogger := audit.NewSlogLogger()
	firmRepo := postgres.NewFirmRepository(db)
	memberRepo := postgres.NewMemberRepository(db)
	grantService := grant.NewService(postgres.NewGrantRepository(db), memberRepo, auditLogger)

	violations, err := metrics.NewViolationCounter(nil)
	if err != nil {
		return err
	}
	enforcer := isolation.NewEnforcer(auditLogger, violations)

	return enforcer.WithBypass(ctx, sys, func(ctx context.Context) error {
		const pageSize = 100
		removed := 0
		for offset := 0; ; offset += pageSize {
			firms, err := firmRepo.List(ctx, pageSize, offset)
			if err != nil {
				return err
			}
			for _, f := range firms {
				members, err := memberRepo.ListByFirm(ctx, f.ID)
				if err != nil {
					return err
				}
				for _, m := range members {
					if m.Status != permission.StatusTerminated {
						continue
					}
					n, err := grantService.PurgeMemberGrants(ctx, m.ID, sys.CallerID())
					if err != nil {
						return err
					}
					removed += n
				}
			}
			if len(firms) < pageSize {
				break
			}
		}
		fmt.Printf("Removed %d grants held by terminated members\n", removed)
		return nil
	})
}

func connect(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	return postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
}
