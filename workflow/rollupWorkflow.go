package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"bitbucket.org/datafokus/bizplan_backend/config"
	"bitbucket.org/datafokus/bizplan_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProcessSimulationWorkflow recomputes financial summaries for one simulation
// lifecycle event. It runs inside the worker's message transaction; every
// summary write it performs commits or rolls back together with the outbox
// and idempotency bookkeeping.
//
// Unlike the void engine entry points used on the synchronous path, errors
// here propagate so the worker can nack and Pub/Sub can redeliver.
func ProcessSimulationWorkflow(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, msg config.PubSubMessage) error {
	action, err := models.ParsePubSubMessageAction(msg.Action)
	if err != nil {
		config.LogError(logger, "RollupWorkflow.go", "ProcessSimulationWorkflow", "ParseAction", msg.Action, err)
		return err
	}

	store := NewGormStore(tx)
	engine := NewRollupEngine(store, store, logger)

	switch action {
	case models.PubSubMessageActionCreate, models.PubSubMessageActionRestore:
		var simulation models.Simulation
		if err := json.Unmarshal(msg.NewObj, &simulation); err != nil {
			config.LogError(logger, "RollupWorkflow.go", "ProcessSimulationWorkflow > Create", "Unmarshal msg.NewObj", string(msg.NewObj), err)
			return err
		}
		return engine.RecomputePeriod(ctx, PeriodOfDate(simulation.UserId, simulation.BusinessId, simulation.SimulationDate))

	case models.PubSubMessageActionUpdate:
		var simulation models.Simulation
		if err := json.Unmarshal(msg.NewObj, &simulation); err != nil {
			config.LogError(logger, "RollupWorkflow.go", "ProcessSimulationWorkflow > Update", "Unmarshal msg.NewObj", string(msg.NewObj), err)
			return err
		}
		var oldSimulation models.Simulation
		if err := json.Unmarshal(msg.OldObj, &oldSimulation); err != nil {
			config.LogError(logger, "RollupWorkflow.go", "ProcessSimulationWorkflow > Update", "Unmarshal msg.OldObj", string(msg.OldObj), err)
			return err
		}
		oldKey := PeriodOfDate(oldSimulation.UserId, oldSimulation.BusinessId, oldSimulation.SimulationDate)
		newKey := PeriodOfDate(simulation.UserId, simulation.BusinessId, simulation.SimulationDate)
		if oldKey != newKey {
			if err := engine.RecomputePeriod(ctx, oldKey); err != nil {
				config.LogError(logger, "RollupWorkflow.go", "ProcessSimulationWorkflow > Update", "RecomputePeriod Old", oldKey.String(), err)
				return err
			}
		}
		return engine.RecomputePeriod(ctx, newKey)

	case models.PubSubMessageActionDelete:
		var oldSimulation models.Simulation
		if err := json.Unmarshal(msg.OldObj, &oldSimulation); err != nil {
			config.LogError(logger, "RollupWorkflow.go", "ProcessSimulationWorkflow > Delete", "Unmarshal msg.OldObj", string(msg.OldObj), err)
			return err
		}
		return engine.RecomputePeriod(ctx, PeriodOfDate(oldSimulation.UserId, oldSimulation.BusinessId, oldSimulation.SimulationDate))

	default:
		return fmt.Errorf("unhandled pubsub action %q", msg.Action)
	}
}
