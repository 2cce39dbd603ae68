package models

import "errors"

type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

func (t CategoryType) Valid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

type CategorySubtype string

const (
	CategorySubtypeOperatingRevenue    CategorySubtype = "operating_revenue"
	CategorySubtypeNonOperatingRevenue CategorySubtype = "non_operating_revenue"
	CategorySubtypeCogs                CategorySubtype = "cogs"
	CategorySubtypeOperatingExpense    CategorySubtype = "operating_expense"
	CategorySubtypeInterestExpense     CategorySubtype = "interest_expense"
	CategorySubtypeTaxExpense          CategorySubtype = "tax_expense"
)

func (s CategorySubtype) Valid() bool {
	switch s {
	case CategorySubtypeOperatingRevenue, CategorySubtypeNonOperatingRevenue,
		CategorySubtypeCogs, CategorySubtypeOperatingExpense,
		CategorySubtypeInterestExpense, CategorySubtypeTaxExpense:
		return true
	}
	return false
}

// Type returns the category type a subtype belongs to. Subtotal buckets are
// keyed by the (type, subtype) pair, so a simulation only counts when both match.
func (s CategorySubtype) Type() CategoryType {
	switch s {
	case CategorySubtypeOperatingRevenue, CategorySubtypeNonOperatingRevenue:
		return CategoryTypeIncome
	default:
		return CategoryTypeExpense
	}
}

// CategoryRole tags structurally significant categories so balance-sheet
// heuristics key off a stable tag instead of the display name.
type CategoryRole string

const (
	CategoryRoleNone        CategoryRole = ""
	CategoryRoleMaintenance CategoryRole = "maintenance"
)

type SimulationStatus string

const (
	SimulationStatusDraft     SimulationStatus = "draft"
	SimulationStatusCompleted SimulationStatus = "completed"
	SimulationStatusCanceled  SimulationStatus = "canceled"
)

func (s SimulationStatus) Valid() bool {
	switch s {
	case SimulationStatusDraft, SimulationStatusCompleted, SimulationStatusCanceled:
		return true
	}
	return false
}

type PubSubMessageAction string

const (
	PubSubMessageActionCreate  PubSubMessageAction = "C"
	PubSubMessageActionUpdate  PubSubMessageAction = "U"
	PubSubMessageActionDelete  PubSubMessageAction = "D"
	PubSubMessageActionRestore PubSubMessageAction = "R"
)

func ParsePubSubMessageAction(s string) (PubSubMessageAction, error) {
	switch s {
	case "C":
		return PubSubMessageActionCreate, nil
	case "U":
		return PubSubMessageActionUpdate, nil
	case "D":
		return PubSubMessageActionDelete, nil
	case "R":
		return PubSubMessageActionRestore, nil
	}
	return "", errors.New("invalid pub sub message action")
}

// ReferenceTypeSimulation is the only reference type the rollup worker
// handles today; the column stays an enum so future planning records
// (recurring templates, imports) can reuse the outbox.
const ReferenceTypeSimulation = "SM"

const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

type IdempotencyStatus string

const (
	IdempotencyStatusStarted   IdempotencyStatus = "STARTED"
	IdempotencyStatusSucceeded IdempotencyStatus = "SUCCEEDED"
	IdempotencyStatusFailed    IdempotencyStatus = "FAILED"
)
