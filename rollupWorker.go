package main

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"sync"
	"time"

	"bitbucket.org/datafokus/bizplan_backend/config"
	"bitbucket.org/datafokus/bizplan_backend/models"
	"bitbucket.org/datafokus/bizplan_backend/utils"
	"bitbucket.org/datafokus/bizplan_backend/workflow"
	"cloud.google.com/go/pubsub"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	businessMutexMap = make(map[string]*sync.Mutex)
	globalMutex      = &sync.Mutex{}
)

// RunRollupWorkflow subscribes to simulation lifecycle events and recomputes
// financial summaries. Delivery is at-least-once and unordered; correctness
// comes from full recomputes being idempotent, not from delivery order.
func RunRollupWorkflow() error {
	logger := config.GetLogger()
	ctx := context.Background()
	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}
	topic, err := config.CreateTopicIfNotExists(client, os.Getenv("PUBSUB_TOPIC"))
	if err != nil {
		return err
	}
	sub, err := config.CreateSubscriptionIfNotExists(client, os.Getenv("PUBSUB_SUBSCRIPTION"), topic)
	if err != nil {
		return err
	}
	// Specify the number of concurrent processes
	sub.ReceiveSettings.MaxOutstandingMessages = 10

	callback := func(ctx context.Context, msg *pubsub.Message) {
		m := config.PubSubMessage{}
		err := json.Unmarshal(msg.Data, &m)
		if err != nil {
			config.LogError(logger, "RollupWorker.go", "RunRollupWorkflow", "Unmarshaling pubsub message", msg.Data, err)
			return
		}

		// In-process serialization per business; the advisory DB lock inside
		// ProcessMessage covers other instances.
		globalMutex.Lock()
		mutex, exists := businessMutexMap[m.BusinessId]
		if !exists {
			mutex = &sync.Mutex{}
			businessMutexMap[m.BusinessId] = mutex
		}
		globalMutex.Unlock()

		mutex.Lock()
		defer mutex.Unlock()

		ctx = utils.SetBusinessIdInContext(ctx, m.BusinessId)
		ctx = utils.SetUserIdInContext(ctx, m.UserId)
		ctx = utils.SetUserNameInContext(ctx, "System")
		ctx = utils.SetCorrelationIdInContext(ctx, m.CorrelationId)
		if err := ProcessMessage(ctx, logger, m); err != nil {
			logger.WithFields(logrus.Fields{
				"field":          "RollupWorker",
				"business_id":    m.BusinessId,
				"reference_type": m.ReferenceType,
				"reference_id":   m.ReferenceId,
				"message_id":     msg.ID,
			}).Error("pubsub processing failed: " + err.Error())
			msg.Nack()
			return
		}
		msg.Ack()
	}

	go func() {
		err := sub.Receive(ctx, callback)
		if err != nil {
			config.LogError(logger, "RollupWorker.go", "RunRollupWorkflow", "Failed to receive messages", nil, err)
		}
	}()

	return nil
}

// ProcessMessage handles one lifecycle event in a single transaction: acquire
// the per-(user, business) rollup lock, pass the idempotency gate, recompute,
// then mark the outbox row processed. Returning error triggers rollback;
// returning nil commits. Do not call tx.Commit()/tx.Rollback() inside.
func ProcessMessage(ctx context.Context, logger *logrus.Logger, m config.PubSubMessage) error {
	db := config.GetDB()
	return db.Transaction(func(tx *gorm.DB) error {
		// Enforce strict per-business ordering across instances.
		if err := workflow.AcquireRollupLock(tx.WithContext(ctx), m.UserId, m.BusinessId); err != nil {
			return err
		}
		defer workflow.ReleaseRollupLock(tx.WithContext(ctx), m.UserId, m.BusinessId)

		handlerName := m.ReferenceType
		messageId := strconv.Itoa(m.ID)

		skip, err := workflow.BeginIdempotency(tx.WithContext(ctx), m.BusinessId, handlerName, messageId)
		if err != nil {
			return err
		}
		if skip {
			return markOutboxProcessed(tx.WithContext(ctx), m.ID)
		}

		if err := workflow.ProcessSimulationWorkflow(ctx, tx.WithContext(ctx), logger, m); err != nil {
			_ = workflow.MarkIdempotencyFailed(tx.WithContext(ctx), m.BusinessId, handlerName, messageId, err)
			return err
		}
		if err := markOutboxProcessed(tx.WithContext(ctx), m.ID); err != nil {
			return err
		}
		return workflow.MarkIdempotencySucceeded(tx.WithContext(ctx), m.BusinessId, handlerName, messageId)
	})
}

func markOutboxProcessed(tx *gorm.DB, recordID int) error {
	now := time.Now().UTC()
	return tx.Model(&models.PubSubMessageRecord{}).
		Where("id = ?", recordID).
		Updates(map[string]interface{}{
			"is_processed":       true,
			"processed_at":       &now,
			"last_process_error": nil,
		}).Error
}
