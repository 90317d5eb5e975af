package repositories

import (
	"context"

	"gorm.io/gorm"
)

type contextKey string

const txKey contextKey = "tx_db"

// WithTx returns a context carrying db as the connection repositories in this
// package should use, so a caller can run several repository calls against
// the same transaction without threading *gorm.DB through every signature.
func WithTx(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey, db)
}

// GetDB returns the transaction stashed in ctx by WithTx, or fallback.
func GetDB(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return fallback
}
