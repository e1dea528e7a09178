package store

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

//go:embed migration
var migrationFS embed.FS

// LatestSchemaFileName is the full schema applied to every database.
const LatestSchemaFileName = "LATEST.sql"

// Migrate applies the latest schema of the driver. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	filePath := fmt.Sprintf("migration/%s/%s", s.driver.Type(), LatestSchemaFileName)
	buf, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read schema %s", filePath)
	}

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	applied := 0
	for _, stmt := range strings.Split(string(buf), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute statement in %s", filePath)
		}
		applied++
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit schema")
	}

	slog.Info("schema applied", slog.String("driver", s.driver.Type()), slog.Int("statements", applied))
	return nil
}
