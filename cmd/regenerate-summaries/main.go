// regenerate-summaries wipes and rebuilds financial summaries from completed
// simulations. Run it after changing statement heuristics, after a data fix,
// or whenever stored summaries are suspected to have drifted.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/regenerate-summaries \
//	  [-user-id 1] [-business-id <uuid>] [-year 2026]
//
// With no flags it regenerates every summary in the system.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bitbucket.org/datafokus/bizplan_backend/config"
	"bitbucket.org/datafokus/bizplan_backend/models"
	"bitbucket.org/datafokus/bizplan_backend/utils"
	"bitbucket.org/datafokus/bizplan_backend/workflow"
)

func main() {
	userID := flag.Int("user-id", 0, "Optional: regenerate only one user's summaries.")
	businessID := flag.String("business-id", "", "Optional: regenerate only one business (uuid string). If empty, regenerates all businesses.")
	year := flag.Int("year", 0, "Optional: regenerate only one calendar year.")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	// Ensure schema is up-to-date (creates financial_summaries if missing).
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 0)
	ctx = utils.SetUserNameInContext(ctx, "RegenerateSummaries")

	// Best-effort guard against a live worker recomputing the same business
	// mid-regeneration. Only possible when a single business is targeted and
	// Redis is reachable; otherwise run during a quiet window.
	if strings.TrimSpace(*businessID) != "" {
		config.ConnectRedisWithRetry()
		lock, err := utils.ObtainBusinessLock(ctx, strings.TrimSpace(*businessID), "regenerate", 30*time.Minute)
		if err != nil {
			fmt.Fprintf(os.Stderr, "business %s appears to be processing; retry later: %v\n", *businessID, err)
			os.Exit(2)
		}
		if lock != nil {
			defer lock.Release(ctx)
		}
	}

	store := workflow.NewGormStore(db)
	engine := workflow.NewRollupEngine(store, store, config.GetLogger())

	filter := workflow.RegenerateFilter{
		UserId:     *userID,
		BusinessId: strings.TrimSpace(*businessID),
		Year:       *year,
	}

	started := time.Now()
	report, err := engine.RegenerateAll(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "regeneration aborted: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("regeneration done in %s: periods=%d succeeded=%d failed=%d\n",
		time.Since(started).Round(time.Millisecond), report.PeriodsFound, report.Succeeded, report.Failed)
	if report.Failed > 0 {
		os.Exit(1)
	}
}
