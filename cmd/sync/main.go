package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	channelapp "github.com/enterprise/backend/internal/application/channel"
	"github.com/enterprise/backend/internal/domain/channel"
	"github.com/enterprise/backend/internal/infrastructure/channels"
	"github.com/enterprise/backend/internal/infrastructure/config"
	"github.com/enterprise/backend/internal/infrastructure/lmsapi"
	"github.com/enterprise/backend/internal/infrastructure/logger"
	"github.com/enterprise/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// The sync CLI runs a single transmission pass and exits. It is the
// command the cron containers invoke; the server's scheduler covers the
// same ground for long-running deployments.
func main() {
	var (
		channelFlag  string
		customerFlag string
		logLevel     string
		timeout      time.Duration
	)

	flag.StringVar(&channelFlag, "channel", "", "Channel code to sync (SAP, DEGREED, MOODLE, CSOD; default: all)")
	flag.StringVar(&customerFlag, "customer", "", "Enterprise customer UUID to sync (default: all)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.DurationVar(&timeout, "timeout", 30*time.Minute, "Maximum run duration")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Resolve requested channels
	var codes []channel.Code
	if channelFlag != "" {
		code := channel.Code(channelFlag)
		if !code.IsValid() {
			log.Fatal("Unknown channel code", zap.String("channel", channelFlag))
		}
		codes = []channel.Code{code}
	} else {
		codes = channel.AllCodes()
	}

	customerID := uuid.Nil
	if customerFlag != "" {
		customerID, err = uuid.Parse(customerFlag)
		if err != nil {
			log.Fatal("Invalid enterprise customer UUID", zap.String("customer", customerFlag), zap.Error(err))
		}
	}

	// Database connection
	gormLogLevel := logger.MapGormLogLevel(logLevel)
	gormLog := logger.NewGormLogger(log, gormLogLevel)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	// Repositories
	customerRepo := persistence.NewGormEnterpriseCustomerRepository(db.DB)
	customerUserRepo := persistence.NewGormCustomerUserRepository(db.DB)
	catalogRepo := persistence.NewGormEnterpriseCatalogRepository(db.DB)
	enrollmentRepo := persistence.NewGormEnrollmentRepository(db.DB)
	channelConfigRepo := persistence.NewGormChannelConfigRepository(db.DB)
	learnerAuditRepo := persistence.NewGormLearnerAuditRepository(db.DB)
	contentAuditRepo := persistence.NewGormContentAuditRepository(db.DB)

	// Platform API clients. One-off runs hit the catalog service directly
	// instead of going through the Redis cache.
	lmsCfg := &lmsapi.Config{
		LMSBaseURL:     cfg.LMS.BaseURL,
		CatalogBaseURL: cfg.LMS.CatalogBaseURL,
		WorkerUsername: cfg.LMS.WorkerUsername,
		JWTSecret:      cfg.LMS.JWTSecret,
		JWTIssuer:      cfg.LMS.JWTIssuer,
		TokenLifetime:  cfg.LMS.TokenLifetime,
		Timeout:        cfg.LMS.Timeout,
	}
	lmsTokens := lmsapi.NewTokenSource(lmsCfg)
	catalogClient := lmsapi.NewCatalogClient(lmsCfg, lmsTokens)
	certificatesClient := lmsapi.NewCertificatesClient(lmsCfg, lmsTokens)
	gradesClient := lmsapi.NewGradesClient(lmsCfg, lmsTokens)
	courseClient := lmsapi.NewCourseClient(lmsCfg)
	thirdPartyAuthClient := lmsapi.NewThirdPartyAuthClient(lmsCfg, lmsTokens)

	// Channel clients
	sapsfClient, err := channels.NewSAPSFAdapter(nil)
	if err != nil {
		log.Fatal("Failed to initialize SAP SuccessFactors client", zap.Error(err))
	}
	degreedClient, err := channels.NewDegreedAdapter(nil)
	if err != nil {
		log.Fatal("Failed to initialize Degreed client", zap.Error(err))
	}
	moodleClient, err := channels.NewMoodleAdapter(nil)
	if err != nil {
		log.Fatal("Failed to initialize Moodle client", zap.Error(err))
	}
	cornerstoneClient, err := channels.NewCornerstoneAdapter(nil)
	if err != nil {
		log.Fatal("Failed to initialize Cornerstone client", zap.Error(err))
	}
	registry := channels.NewClientRegistry(sapsfClient, degreedClient, moodleClient, cornerstoneClient)

	// Services
	learnerExporter := channelapp.NewLearnerExporter(
		enrollmentRepo, customerUserRepo, certificatesClient, gradesClient, courseClient, thirdPartyAuthClient, log,
	)
	learnerTransmitter := channelapp.NewLearnerTransmitter(registry, learnerAuditRepo, log)
	contentExporter := channelapp.NewContentMetadataExporter(catalogRepo, catalogClient, log)
	contentTransmitter := channelapp.NewContentMetadataTransmitter(registry, contentAuditRepo, log)
	syncService := channelapp.NewSyncService(
		channelConfigRepo, customerRepo, learnerExporter, learnerTransmitter, contentExporter, contentTransmitter, log,
	)
	unlinkService := channelapp.NewInactiveLearnerUnlinker(
		channelConfigRepo, customerUserRepo, sapsfClient, thirdPartyAuthClient, log,
	)
	configService := channelapp.NewConfigurationService(channelConfigRepo, customerRepo, registry, log)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Clients need stored credentials before any transmission
	applied, err := configService.ApplyAll(ctx)
	if err != nil {
		log.Fatal("Failed to apply channel configurations", zap.Error(err))
	}
	log.Info("Channel configurations applied", zap.Int("count", applied))

	exitCode := 0
	switch command {
	case "learner":
		for _, code := range codes {
			summary, err := syncService.SyncLearnerDataForCustomer(ctx, code, customerID)
			if err != nil {
				log.Error("Learner data sync failed", zap.String("channel", code.String()), zap.Error(err))
				exitCode = 1
				continue
			}
			logSummary(log, "Learner data sync finished", code, summary)
		}

	case "content":
		for _, code := range codes {
			summary, err := syncService.SyncContentMetadataForCustomer(ctx, code, customerID)
			if err != nil {
				log.Error("Content metadata sync failed", zap.String("channel", code.String()), zap.Error(err))
				exitCode = 1
				continue
			}
			logSummary(log, "Content metadata sync finished", code, summary)
		}

	case "unlink":
		unlinked, err := unlinkService.UnlinkInactiveLearners(ctx)
		if err != nil {
			log.Error("Inactive learner sweep failed", zap.Error(err))
			exitCode = 1
		} else {
			log.Info("Inactive learner sweep finished", zap.Int("unlinked", unlinked))
		}

	case "all":
		if err := syncService.SyncAll(ctx); err != nil {
			log.Error("Full sync failed", zap.Error(err))
			exitCode = 1
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		exitCode = 1
	}

	os.Exit(exitCode)
}

func logSummary(log *zap.Logger, msg string, code channel.Code, summary *channel.TransmissionSummary) {
	log.Info(msg,
		zap.String("channel", code.String()),
		zap.Int("total", summary.TotalCount),
		zap.Int("sent", summary.SentCount),
		zap.Int("skipped", summary.SkippedCount),
		zap.Int("failed", summary.FailedCount),
	)
}

func printUsage() {
	fmt.Println(`Channel sync CLI

Usage: sync [flags] <command>

Commands:
  learner    Transmit learner completion and grade data
  content    Transmit catalog content metadata
  unlink     Unlink learners inactive on their channel
  all        Run learner and content sync for every channel

Flags:
  -channel   Channel code to sync (SAP, DEGREED, MOODLE, CSOD; default: all)
  -customer  Enterprise customer UUID to sync (default: all)
  -log-level Log level (default: info)
  -timeout   Maximum run duration (default: 30m)`)
}
