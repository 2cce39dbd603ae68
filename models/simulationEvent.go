package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/datafokus/bizplan_backend/config"
	"bitbucket.org/datafokus/bizplan_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PubSubMessageRecord is the transactional outbox row for simulation
// lifecycle events. The CRUD path writes it inside its own DB transaction;
// publishing happens after commit via the outbox dispatcher (or the direct
// processor in environments without Pub/Sub).
type PubSubMessageRecord struct {
	ID             int                 `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	UserId         int                 `gorm:"not null;index" json:"user_id"`
	BusinessId     string              `gorm:"size:64;not null;index" json:"business_id"`
	SimulationDate time.Time           `gorm:"not null" json:"simulation_date"`
	ReferenceId    int                 `json:"reference_id"`
	ReferenceType  string              `gorm:"type:enum('SM');not null;default:'SM'" json:"reference_type"`
	Action         PubSubMessageAction `gorm:"type:enum('C','U','D','R')" json:"action"`
	OldObj         []byte              `gorm:"type:blob" json:"old_obj"`
	NewObj         []byte              `gorm:"type:blob" json:"new_obj"`
	IsProcessed    bool                `gorm:"index;not null" json:"is_processed"`

	// Publish metadata (publish happens after commit via dispatcher).
	PublishStatus    string     `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time `gorm:"index" json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `gorm:"index" json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`

	// Processing metadata (consumer/worker).
	LastProcessError *string    `gorm:"type:text" json:"last_process_error"`
	ProcessedAt      *time.Time `gorm:"index" json:"processed_at"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// PublishToRollup writes the outbox record inside the caller's DB transaction
// but does NOT publish to Pub/Sub; the dispatcher picks it up after commit.
// newObj must be set for C/U/R, oldObj for U/D.
func PublishToRollup(ctx context.Context, tx *gorm.DB, newObj *Simulation, oldObj *Simulation, action PubSubMessageAction) error {
	var newInByte []byte
	var oldInByte []byte
	var err error

	if newObj != nil {
		newInByte, err = json.Marshal(newObj)
		if err != nil {
			return err
		}
	}
	if oldObj != nil {
		oldInByte, err = json.Marshal(oldObj)
		if err != nil {
			return err
		}
	}

	subject := newObj
	if subject == nil {
		subject = oldObj
	}

	record := PubSubMessageRecord{
		UserId:         subject.UserId,
		BusinessId:     subject.BusinessId,
		SimulationDate: subject.SimulationDate,
		ReferenceId:    subject.ID,
		ReferenceType:  ReferenceTypeSimulation,
		Action:         action,
		NewObj:         newInByte,
		OldObj:         oldInByte,
		IsProcessed:    false,
		PublishStatus:  OutboxPublishStatusPending,
		CorrelationId:  correlationIdFromContextOrNew(ctx),
	}
	return tx.Create(&record).Error
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func ConvertToPubSubMessage(record PubSubMessageRecord) config.PubSubMessage {
	return config.PubSubMessage{
		ID:             record.ID,
		UserId:         record.UserId,
		BusinessId:     record.BusinessId,
		SimulationDate: record.SimulationDate,
		ReferenceId:    record.ReferenceId,
		ReferenceType:  record.ReferenceType,
		Action:         string(record.Action),
		OldObj:         record.OldObj,
		NewObj:         record.NewObj,
		CorrelationId:  record.CorrelationId,
	}
}
