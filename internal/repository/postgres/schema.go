package repository

import (
	"context"
	_ "embed"
	"fmt"
)

// Schema holds the bootstrap SQL applied at startup and used by tests.
//
//go:embed schema.sql
var Schema string

func ApplySchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
