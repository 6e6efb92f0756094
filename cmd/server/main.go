package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/approval-hub/approval-hub/internal/api/http"
	appAudit "github.com/approval-hub/approval-hub/internal/application/audit"
	appDelegation "github.com/approval-hub/approval-hub/internal/application/delegation"
	appEscalation "github.com/approval-hub/approval-hub/internal/application/escalation"
	appNotification "github.com/approval-hub/approval-hub/internal/application/notification"
	appRole "github.com/approval-hub/approval-hub/internal/application/role"
	appRule "github.com/approval-hub/approval-hub/internal/application/rule"
	appWorkflow "github.com/approval-hub/approval-hub/internal/application/workflow"
	"github.com/approval-hub/approval-hub/internal/config"
	"github.com/approval-hub/approval-hub/internal/infrastructure/failsafe"
	"github.com/approval-hub/approval-hub/internal/infrastructure/keystore"
	"github.com/approval-hub/approval-hub/internal/infrastructure/postgres"
	"github.com/approval-hub/approval-hub/internal/infrastructure/sse"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	ruleRepo := postgres.NewRuleRepository(pool)
	workflowRepo := postgres.NewWorkflowRepository(pool)
	delegationRepo := postgres.NewDelegationRepository(pool)
	roleRepo := postgres.NewRoleRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)

	// infrastructure
	sseHub := sse.NewHub()
	keyStore, err := keystore.NewFromEnv()
	if err != nil {
		log.Fatalf("keystore error: %v", err)
	}
	failsafeQueue, err := failsafe.Open(cfg.FailsafePath)
	if err != nil {
		log.Fatalf("failsafe queue error: %v", err)
	}
	defer failsafeQueue.Close()
	alertBus := appAudit.NewAlertBus()
	defer alertBus.Close()
	statusPublisher := sse.NewStatusPublisher(sseHub, logger)

	// services
	auditSvc := appAudit.NewService(auditRepo, workflowRepo, failsafeQueue, alertBus, keyStore.SigningKey(), logger)
	ruleSvc := appRule.NewService(ruleRepo, roleRepo, cfg.BaseCurrency, logger)
	roleSvc := appRole.NewService(roleRepo, logger)
	delegationSvc := appDelegation.NewService(delegationRepo, roleRepo, auditSvc, logger)
	notificationSvc := appNotification.NewService(notificationRepo, roleRepo, sseHub, logger)
	workflowSvc := appWorkflow.NewService(workflowRepo, ruleSvc, delegationSvc, auditSvc, notificationSvc, statusPublisher, logger)
	escalationSvc := appEscalation.NewService(workflowRepo, auditSvc, notificationSvc, statusPublisher, logger)

	// API server
	apiServer := httpapi.NewServer(ruleSvc, workflowSvc, delegationSvc, auditSvc, notificationSvc, roleSvc, sseHub)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background loops
	go func() {
		ticker := time.NewTicker(cfg.EscalationInterval)
		defer ticker.Stop()
		for range ticker.C {
			n, err := escalationSvc.Sweep(context.Background(), cfg.EscalationBatchSize)
			if err != nil {
				logger.Error().Err(err).Msg("escalation sweep failed")
			}
			if n > 0 {
				logger.Info().Int("escalated", n).Msg("escalation sweep done")
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.FailsafeDrainInterval)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := auditSvc.DrainFailsafe(context.Background()); err != nil {
				logger.Warn().Err(err).Msg("audit failsafe drain failed")
			}
		}
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	sseHub.Stop()
}
