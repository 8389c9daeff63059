package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"aura-taste/internal/config"
	"aura-taste/internal/db"
	"aura-taste/internal/importer"
	branchrepo "aura-taste/internal/repository/branch"
	categoryrepo "aura-taste/internal/repository/category"
	productrepo "aura-taste/internal/repository/product"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to a menu or branch CSV file")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	ctx := context.Background()

	kind, err := detect(filePath)
	if err != nil {
		log.Fatalf("inspect file: %v", err)
	}

	pool, err := db.Connect(ctx, cfg.DBConnString, db.Options{})
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f,
		productrepo.NewPostgres(pool, nil),
		categoryrepo.NewPostgres(pool),
		branchrepo.NewPostgres(pool),
	)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		log.Fatalf("import failed after %d rows: %v", count, err)
	}

	fmt.Printf("Imported %d %s in %s\n", count, kind, time.Since(start).Truncate(time.Millisecond))
}

func detect(path string) (importer.Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return importer.DetectKind(f)
}
