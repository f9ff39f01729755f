package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"lessonhub/internal/config"
	"lessonhub/internal/lesson"
	"lessonhub/pkg/database"
	"lessonhub/pkg/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("LESSONHUB_CONFIG"), "path to a YAML or JSON config file")
	inPath := flag.String("in", "", "catalog json (defaults to seed_path from config)")
	dryRun := flag.Bool("dry-run", false, "validate the catalog without writing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if *inPath == "" {
		*inPath = cfg.SeedPath
	}

	logg, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer logg.Sync()

	catalog, err := database.LoadCatalogFromJSON(*inPath)
	if err != nil {
		logg.Fatal("load catalog", "path", *inPath, "error", err)
	}
	lessons := 0
	for _, p := range catalog {
		lessons += len(p.Lessons)
	}
	logg.Info("catalog loaded", "path", *inPath, "products", len(catalog), "lessons", lessons)
	if *dryRun {
		return
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logg.Fatal("open database", "error", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logg.Fatal("migrate", "error", err)
	}
	n, err := database.SeedCatalog(db, catalog)
	if err != nil {
		logg.Fatal("seed catalog", "error", err)
	}
	for _, p := range catalog {
		stored, err := lesson.ListByProduct(context.Background(), db, p.ID)
		if err != nil {
			logg.Fatal("verify catalog", "product_id", p.ID, "error", err)
		}
		if len(stored) < len(p.Lessons) {
			logg.Warn("product has fewer stored lessons than the catalog lists",
				"product_id", p.ID, "stored", len(stored), "catalog", len(p.Lessons))
		}
	}
	fmt.Printf("Inserted %d new lessons from %s\n", n, *inPath)
}
