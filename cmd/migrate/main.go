package main

import (
	"context"
	"flag"
	"fmt"

	"ms-ordering/internal/config"
	"ms-ordering/internal/database"
	"ms-ordering/internal/database/migrations"
	"ms-ordering/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	down := flag.Bool("down", false, "roll back every migration")
	seed := flag.Bool("seed", false, "also load the demo restaurant")
	dir := flag.String("dir", "", "migrations directory (default DB_MIGRATIONS_DIR)")
	flag.Parse()

	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()
	if *dir == "" {
		*dir = cfg.Database.MigrationsDir
	}

	db, err := database.Connect(context.Background(), cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer db.Close()

	runner := migrations.NewRunner(db, migrations.Options{Dir: *dir, SeedData: *seed}, log)
	defer runner.Close()

	if *down {
		log.Info("MIGRATE", "Rolling back all migrations")
		if err := runner.Down(); err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
		return
	}

	if err := runner.Up(); err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
	version, dirty, err := runner.Version()
	if err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
	log.Info("MIGRATE", fmt.Sprintf("Done, version %d (dirty=%t)", version, dirty))
}
