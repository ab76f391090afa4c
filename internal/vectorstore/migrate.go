package vectorstore

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/kapu/roast-rag-go/internal/vectorstore/migrations"
	"github.com/pressly/goose/v3"
)

// goose keeps dialect and base FS in package state.
var gooseMu sync.Mutex

// RunMigrations applies all pending migrations for one dialect from the embedded FS.
func RunMigrations(db *sql.DB, dialect, dir string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
