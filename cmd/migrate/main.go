package main

import (
	"database/sql"
	"flag"
	"log"

	"club-pos/internal/config"
	"club-pos/internal/database/migrations"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

func main() {
	down := flag.Bool("down", false, "roll back all migrations")
	to := flag.Uint("to", 0, "migrate to a specific schema version")
	dir := flag.String("dir", "./migrations", "directory containing migration files")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using environment variables")
	}

	cfg := config.Load()

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN)))
	defer sqldb.Close()

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
		MigrationsDir: *dir,
	})

	var err error
	switch {
	case *down:
		log.Println("Rolling back all migrations...")
		err = runner.MigrateDown()
	case *to > 0:
		log.Printf("Migrating to version %d...", *to)
		err = runner.MigrateTo(*to)
	default:
		log.Println("Running migrations...")
		err = runner.MigrateUp()
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	version, dirty, err := runner.Version()
	if err != nil {
		log.Println("Schema is empty")
	} else {
		log.Printf("Schema version: %d (dirty: %v)", version, dirty)
	}

	log.Println("Done.")
}
