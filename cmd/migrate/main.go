// Command migrate applies the embedded SQL migrations to the
// configured Postgres database.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"

	"github.com/snapcal/registrar/migrations/postgres"
)

func main() {
	down := flag.Bool("down", false, "roll back all migrations instead of applying them")
	dsn := flag.String("dsn", "", "postgres DSN (defaults to DATABASE_URL)")
	flag.Parse()

	_ = godotenv.Load()

	url := *dsn
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		fmt.Fprintln(os.Stderr, "migrate: no DSN given (set DATABASE_URL or pass -dsn)")
		os.Exit(1)
	}

	// The pgx/v5 migrate driver registers the pgx5:// scheme; accept the
	// usual postgres:// DSN and rewrite it.
	if strings.HasPrefix(url, "postgres://") {
		url = "pgx5://" + strings.TrimPrefix(url, "postgres://")
	} else if strings.HasPrefix(url, "postgresql://") {
		url = "pgx5://" + strings.TrimPrefix(url, "postgresql://")
	}

	src, err := iofs.New(postgres.FS, ".")
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate: load embedded migrations:", err)
		os.Exit(1)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate: open database:", err)
		os.Exit(1)
	}
	defer m.Close()

	if *down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("migrate: nothing to do")
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	fmt.Println("migrate: done")
}
