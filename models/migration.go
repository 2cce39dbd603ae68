package models

import (
	"log"

	"bitbucket.org/datafokus/bizplan_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{}, &Business{},
		&Category{}, &Simulation{},
		&FinancialSummary{},
		&PubSubMessageRecord{},
		&IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
