package db

import (
	"context"
	"fmt"

	"github.com/diewo77/invoice-dashboard/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedUsers = []struct {
	models.User
	plain string
}{
	{User: models.User{ID: "410544b2-4001-4271-9855-fec4b6a6442a", Name: "User", Email: "user@nextmail.com"}, plain: "123456"},
}

var seedCustomers = []models.Customer{
	{ID: "d6e15727-9fe1-4961-8c5b-ea44a9bd81aa", Name: "Evil Rabbit", Email: "evil@rabbit.com", ImageURL: "/static/customers/evil-rabbit.png"},
	{ID: "3958dc9e-712f-4377-85e9-fec4b6a6442a", Name: "Delba de Oliveira", Email: "delba@oliveira.com", ImageURL: "/static/customers/delba-de-oliveira.png"},
	{ID: "3958dc9e-742f-4377-85e9-fec4b6a6442a", Name: "Lee Robinson", Email: "lee@robinson.com", ImageURL: "/static/customers/lee-robinson.png"},
	{ID: "76d65c26-f784-44a2-ac19-586678f7c2f2", Name: "Michael Novotny", Email: "michael@novotny.com", ImageURL: "/static/customers/michael-novotny.png"},
	{ID: "cc27c14a-0acf-4f4a-a6c9-d45682c144b9", Name: "Amy Burns", Email: "amy@burns.com", ImageURL: "/static/customers/amy-burns.png"},
	{ID: "13d07535-c59e-4157-a011-f8d2ef4e0cbb", Name: "Balazs Orban", Email: "balazs@orban.com", ImageURL: "/static/customers/balazs-orban.png"},
}

var seedInvoices = []models.Invoice{
	{CustomerID: "d6e15727-9fe1-4961-8c5b-ea44a9bd81aa", Amount: 15795, Status: models.InvoiceStatusPending},
	{CustomerID: "3958dc9e-712f-4377-85e9-fec4b6a6442a", Amount: 20348, Status: models.InvoiceStatusPending},
	{CustomerID: "cc27c14a-0acf-4f4a-a6c9-d45682c144b9", Amount: 3040, Status: models.InvoiceStatusPaid},
	{CustomerID: "76d65c26-f784-44a2-ac19-586678f7c2f2", Amount: 44800, Status: models.InvoiceStatusPaid},
	{CustomerID: "13d07535-c59e-4157-a011-f8d2ef4e0cbb", Amount: 34577, Status: models.InvoiceStatusPending},
	{CustomerID: "3958dc9e-742f-4377-85e9-fec4b6a6442a", Amount: 54246, Status: models.InvoiceStatusPending},
	{CustomerID: "76d65c26-f784-44a2-ac19-586678f7c2f2", Amount: 666, Status: models.InvoiceStatusPending},
	{CustomerID: "13d07535-c59e-4157-a011-f8d2ef4e0cbb", Amount: 32545, Status: models.InvoiceStatusPaid},
}

var seedInvoiceDates = []string{
	"2022-12-06", "2022-11-14", "2022-10-29", "2023-09-10",
	"2023-08-05", "2023-07-16", "2023-06-27", "2023-06-09",
}

// Seed inserts the sample user, customers and invoices. Users and customers are keyed by
// fixed ids; invoices are only inserted into an empty table, so Seed is safe to rerun.
func Seed(ctx context.Context, gdb *gorm.DB) error {
	tx := gdb.WithContext(ctx)
	for _, su := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.plain), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("seed: hash password: %w", err)
		}
		u := su.User
		u.Password = string(hash)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&u).Error; err != nil {
			return fmt.Errorf("seed: users: %w", err)
		}
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seedCustomers).Error; err != nil {
		return fmt.Errorf("seed: customers: %w", err)
	}

	var count int64
	if err := tx.Model(&models.Invoice{}).Count(&count).Error; err != nil {
		return fmt.Errorf("seed: count invoices: %w", err)
	}
	if count > 0 {
		return nil
	}
	for i, inv := range seedInvoices {
		err := tx.Exec(
			"INSERT INTO invoices (customer_id, amount, status, date) VALUES (?, ?, ?, ?)",
			inv.CustomerID, inv.Amount, string(inv.Status), seedInvoiceDates[i],
		).Error
		if err != nil {
			return fmt.Errorf("seed: invoices: %w", err)
		}
	}
	return nil
}
