package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/datafokus/bizplan_backend/config"
	"bitbucket.org/datafokus/bizplan_backend/models"
	"bitbucket.org/datafokus/bizplan_backend/workflow"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// The rollup service is a pure worker: it drains the simulation outbox,
// consumes lifecycle events from Pub/Sub and keeps financial summaries
// consistent. It exposes no HTTP surface of its own.
func main() {
	godotenv.Load()
	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// IMPORTANT: AutoMigrate can run DDL that blocks tables.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	// Outbox dispatcher publishes AFTER commit.
	if pubSubConfigured() {
		go workflow.NewOutboxDispatcher(db, logger).Run(workerCtx)

		if err := RunRollupWorkflow(); err != nil {
			config.LogError(logger, "Main.go", "main", "RunRollupWorkflow", nil, err)
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "pubsub"}).Warn("PUBSUB_TOPIC not set; running without broker")
	}

	if shouldRunDirectOutboxProcessor() {
		go NewOutboxDirectProcessor(db, logger).Run(workerCtx)
	}

	log.Println("Rollup worker started successfully")

	<-sigCtx.Done()

	// Stop background workers so they don't start new work while we're draining.
	cancelWorkers()
	time.Sleep(2 * time.Second)
	log.Println("Rollup worker stopped")
}

func pubSubConfigured() bool {
	return strings.TrimSpace(os.Getenv("PUBSUB_TOPIC")) != ""
}
