package biagent

import (
	"context"
	"database/sql"
	"fmt"

	"trpc.group/trpc-go/trpc-agent-go/log"
)

const createProductsTable = `
CREATE TABLE IF NOT EXISTS products (
	product_id     INTEGER PRIMARY KEY,
	name           TEXT NOT NULL,
	category       TEXT NOT NULL,
	list_price     REAL NOT NULL,
	transfer_price REAL NOT NULL
)`

// demoProducts is a small AdventureWorks-flavored catalog, enough for
// the example questions on the landing page.
var demoProducts = []struct {
	name     string
	category string
	list     float64
	transfer float64
}{
	{"Road-150 Red, 62", "Bikes", 3578.27, 2171.29},
	{"Road-450 Red, 58", "Bikes", 1457.99, 884.71},
	{"Mountain-100 Silver, 44", "Bikes", 3399.99, 1912.15},
	{"Mountain-400-W Silver, 46", "Bikes", 769.49, 419.78},
	{"Touring-1000 Blue, 60", "Bikes", 2384.07, 1481.94},
	{"HL Road Frame - Black, 58", "Components", 1431.50, 868.63},
	{"HL Mountain Frame - Silver, 42", "Components", 1364.50, 827.98},
	{"LL Road Handlebars", "Components", 44.54, 19.79},
	{"Chain", "Components", 20.24, 8.99},
	{"Sport-100 Helmet, Red", "Accessories", 34.99, 13.09},
	{"Water Bottle - 30 oz.", "Accessories", 4.99, 1.87},
	{"Hydration Pack - 70 oz.", "Accessories", 54.99, 20.57},
	{"Mountain Bike Socks, M", "Clothing", 9.50, 3.40},
	{"AWC Logo Cap", "Clothing", 8.99, 5.71},
	{"Long-Sleeve Logo Jersey, L", "Clothing", 49.99, 31.72},
}

// EnsureDemoData creates and populates the demo products table when it
// is empty, so a fresh checkout answers the example questions without
// any manual setup.
func EnsureDemoData(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createProductsTable); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO products (name, category, list_price, transfer_price) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	defer stmt.Close()
	for _, p := range demoProducts {
		if _, err := stmt.ExecContext(ctx, p.name, p.category, p.list, p.transfer); err != nil {
			return fmt.Errorf("seed product %q: %w", p.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	log.Infof("seeded demo database with %d products", len(demoProducts))
	return nil
}
