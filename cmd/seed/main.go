package main

import (
	"context"
	"flag"
	"log"
	"os"

	"aura-taste/internal/config"
	"aura-taste/internal/db"
	branchrepo "aura-taste/internal/repository/branch"
	categoryrepo "aura-taste/internal/repository/category"
	productrepo "aura-taste/internal/repository/product"
	"aura-taste/internal/seed"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Menu YAML to load instead of the built-in menu")
	flag.Parse()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	menu, err := loadMenu(filePath)
	if err != nil {
		logger.Fatalf("load menu: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, db.Options{Attempts: 10, Logger: logger})
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	n, err := seed.Apply(ctx, menu,
		categoryrepo.NewPostgres(pool),
		productrepo.NewPostgres(pool, logger),
		branchrepo.NewPostgres(pool),
	)
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied categories=%d products=%d branches=%d", n.Categories, n.Products, n.Branches)
}

func loadMenu(path string) (seed.Menu, error) {
	if path == "" {
		return seed.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return seed.Menu{}, err
	}
	return seed.Parse(data)
}
