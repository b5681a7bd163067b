package postgres

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	"github.com/yuzvak/storefront-checkout/internal/config"
	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

// RunMigrations applies every *.up.sql file in cfg.MigrationsPath that is not
// yet recorded in the migrations table, in lexical order, one transaction each.
func RunMigrations(cfg config.DatabaseConfig, log *logger.Logger) error {
	log.Info("Starting migrations", "migrations_path", cfg.MigrationsPath)

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedMigrations(db)
	if err != nil {
		return err
	}

	pending, err := pendingMigrations(cfg.MigrationsPath, applied)
	if err != nil {
		return err
	}
	log.Info("Found pending migrations", "count", len(pending))

	for _, migration := range pending {
		if err := applyMigration(db, cfg.MigrationsPath, migration); err != nil {
			return err
		}
		log.Info("Applied migration", "name", migration)
	}

	return nil
}

func appliedMigrations(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query("SELECT name FROM migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations table: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func pendingMigrations(dir string, applied map[string]bool) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory %s: %w", dir, err)
	}

	var migrations []string
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".up.sql") {
			continue
		}
		if applied[file.Name()] {
			continue
		}
		migrations = append(migrations, file.Name())
	}
	sort.Strings(migrations)
	return migrations, nil
}

func applyMigration(db *sql.DB, dir, migration string) error {
	content, err := os.ReadFile(filepath.Join(dir, migration))
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", migration, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(string(content)); err != nil {
		tx.Rollback()
		return fmt.Errorf("error executing migration %s: %w", migration, err)
	}

	if _, err := tx.Exec("INSERT INTO migrations (name) VALUES ($1)", migration); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %s: %w", migration, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction for migration %s: %w", migration, err)
	}
	return nil
}
