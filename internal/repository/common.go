package repository

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

func utcNow() time.Time { return time.Now().UTC() }

func lower(s string) string { return strings.ToLower(s) }

// storeFailure logs a document store error with its context and replaces it
// with ErrStore so nothing store-specific reaches the caller.
func storeFailure(log *zap.Logger, coll, op string, err error) error {
	log.Error("document store failure",
		zap.String("component", "repository"),
		zap.String("collection", coll),
		zap.String("op", op),
		zap.Error(err),
	)
	return ErrStore
}
