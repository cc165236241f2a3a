// Package main provides a CLI tool for seeding the database with demo
// catalog data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"supplytrack/internal/core/types"
	"supplytrack/internal/domain/catalogs/customer"
	"supplytrack/internal/domain/catalogs/product"
	"supplytrack/internal/domain/catalogs/supplier"
	"supplytrack/internal/infrastructure/storage/postgres"
	"supplytrack/internal/infrastructure/storage/postgres/catalog_repo"
	"supplytrack/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txm := postgres.NewTxManager(pool)
	supplierRepo := catalog_repo.NewSupplierRepo(txm)
	productRepo := catalog_repo.NewProductRepo(txm)
	customerRepo := catalog_repo.NewCustomerRepo(txm)

	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		suppliers := seedSuppliers()
		for _, s := range suppliers {
			if err := supplierRepo.Create(ctx, s); err != nil {
				return fmt.Errorf("seed supplier %s: %w", s.CompanyName, err)
			}
		}
		log.Infow("suppliers seeded", "count", len(suppliers))

		products := seedProducts(suppliers[0], suppliers[1])
		for _, p := range products {
			if err := productRepo.Create(ctx, p); err != nil {
				return fmt.Errorf("seed product %s: %w", p.SKU, err)
			}
		}
		log.Infow("products seeded", "count", len(products))

		customers := seedCustomers()
		for _, c := range customers {
			if err := customerRepo.Create(ctx, c); err != nil {
				return fmt.Errorf("seed customer %s: %w", c.Name, err)
			}
		}
		log.Infow("customers seeded", "count", len(customers))
		return nil
	})
	if err != nil {
		log.Fatalw("seeding failed", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedSuppliers() []*supplier.Supplier {
	golden := supplier.New("Golden Grain Trading")
	golden.ContactPerson = "Maria Santos"
	golden.Email = "orders@goldengrain.example"
	golden.Phone = "+63-2-8123-4567"
	golden.Address = customer.Address{
		Street:   "14 Harbor Road",
		City:     "Manila",
		Province: "Metro Manila",
		ZipCode:  "1000",
	}

	pacific := supplier.New("Pacific Beverage Supply")
	pacific.ContactPerson = "Ramon Cruz"
	pacific.Email = "sales@pacificbev.example"
	pacific.Phone = "+63-32-255-0199"
	pacific.Address = customer.Address{
		Street:   "Lot 7, Coastal Industrial Park",
		City:     "Cebu City",
		Province: "Cebu",
		ZipCode:  "6000",
	}

	return []*supplier.Supplier{golden, pacific}
}

func seedProducts(grain, beverage *supplier.Supplier) []*product.Product {
	rice := product.New("Premium Rice 25kg", "RICE-25KG", "sack", types.MustMoney("1450.00"))
	rice.CostPrice = types.MustMoney("1250.00")
	rice.SupplierID = &grain.ID
	rice.StockQuantity = 120
	rice.ReorderLevel = 30

	flour := product.New("All-Purpose Flour 10kg", "FLOUR-10KG", "bag", types.MustMoney("520.00"))
	flour.CostPrice = types.MustMoney("430.00")
	flour.SupplierID = &grain.ID
	flour.StockQuantity = 80
	flour.ReorderLevel = 25

	cola := product.New("Cola 1.5L Case", "COLA-15L-CS", "case", types.MustMoney("690.00"))
	cola.CostPrice = types.MustMoney("580.00")
	cola.SupplierID = &beverage.ID
	cola.StockQuantity = 60
	cola.ReorderLevel = 20

	water := product.New("Purified Water 500ml Case", "WATER-500-CS", "case", types.MustMoney("210.00"))
	water.CostPrice = types.MustMoney("160.00")
	water.SupplierID = &beverage.ID
	water.StockQuantity = 15
	water.ReorderLevel = 40 // starts below reorder level on purpose

	return []*product.Product{rice, flour, cola, water}
}

func seedCustomers() []*customer.Customer {
	sari := customer.New("Aling Nena Sari-Sari Store")
	sari.Email = "nena@example.com"
	sari.Phone = "+63-917-555-0101"
	sari.Address = customer.Address{
		Street:   "23 Mabini Street",
		City:     "Quezon City",
		Province: "Metro Manila",
		ZipCode:  "1100",
	}

	canteen := customer.New("Riverside Canteen")
	canteen.Email = "riverside.canteen@example.com"
	canteen.Phone = "+63-917-555-0144"
	canteen.Address = customer.Address{
		Street:   "8 Riverside Drive",
		City:     "Pasig",
		Province: "Metro Manila",
		ZipCode:  "1600",
	}

	return []*customer.Customer{sari, canteen}
}
