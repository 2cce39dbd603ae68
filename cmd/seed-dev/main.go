// seed-dev populates a local database with a demo user, one business and the
// default category catalog so the rollup worker has something to chew on.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/datafokus/bizplan_backend/config"
	"bitbucket.org/datafokus/bizplan_backend/models"
	"bitbucket.org/datafokus/bizplan_backend/utils"
)

const (
	devUserEmail    = "demo@bizplan.local"
	devUserPassword = "demo1234"
	devUserName     = "Demo Pemilik"
	devBusinessName = "Warung Kopi Sejahtera"
)

var defaultCategories = []models.NewCategory{
	{Name: "Penjualan Produk", Type: models.CategoryTypeIncome, Subtype: models.CategorySubtypeOperatingRevenue},
	{Name: "Pendapatan Jasa", Type: models.CategoryTypeIncome, Subtype: models.CategorySubtypeOperatingRevenue},
	{Name: "Pendapatan Lain-lain", Type: models.CategoryTypeIncome, Subtype: models.CategorySubtypeNonOperatingRevenue},
	{Name: "Bahan Baku", Type: models.CategoryTypeExpense, Subtype: models.CategorySubtypeCogs},
	{Name: "Gaji Karyawan", Type: models.CategoryTypeExpense, Subtype: models.CategorySubtypeOperatingExpense},
	{Name: "Sewa Tempat", Type: models.CategoryTypeExpense, Subtype: models.CategorySubtypeOperatingExpense},
	{Name: models.MaintenanceCategoryName, Type: models.CategoryTypeExpense, Subtype: models.CategorySubtypeOperatingExpense, Role: models.CategoryRoleMaintenance},
	{Name: "Bunga Pinjaman", Type: models.CategoryTypeExpense, Subtype: models.CategorySubtypeInterestExpense},
	{Name: "Pajak Usaha", Type: models.CategoryTypeExpense, Subtype: models.CategorySubtypeTaxExpense},
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	hashed, err := utils.HashPassword(devUserPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	var user models.User
	err = db.WithContext(ctx).Where("email = ?", devUserEmail).First(&user).Error
	if err != nil {
		user = models.User{
			Name:     devUserName,
			Email:    devUserEmail,
			Password: string(hashed),
		}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create user: %v\n", err)
			os.Exit(1)
		}
	}

	var business models.Business
	err = db.WithContext(ctx).Where("owner_user_id = ? AND name = ?", user.ID, devBusinessName).First(&business).Error
	if err != nil {
		business = models.Business{
			OwnerUserId: user.ID,
			Name:        devBusinessName,
			Sector:      "F&B",
			Timezone:    utils.DefaultTimezone,
		}
		if err := db.WithContext(ctx).Create(&business).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create business: %v\n", err)
			os.Exit(1)
		}
	}

	existing, err := models.GetCategories(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list categories: %v\n", err)
		os.Exit(1)
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c.Name] = true
	}
	created := 0
	for _, input := range defaultCategories {
		if have[input.Name] {
			continue
		}
		if _, err := models.CreateCategory(ctx, input); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create category %q: %v\n", input.Name, err)
			os.Exit(1)
		}
		created++
	}

	fmt.Printf("seeded: user=%s (%s) business=%s (%s) categories_created=%d\n",
		user.Name, devUserEmail, business.Name, business.ID, created)
	fmt.Printf("login password: %s\n", devUserPassword)
}
