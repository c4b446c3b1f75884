// Package txn runs multi-document operations in a MongoDB transaction,
// falling back to plain sequential execution when the server does not
// support transactions (standalone mongod without a replica set).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a transaction on db's client. When the server
// rejects transactions as unsupported, fn is re-run outside a session so
// standalone deployments (dev, tests) still work, at the cost of
// atomicity.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	client := db.Client()

	err := client.UseSession(ctx, func(sc mongo.SessionContext) error {
		_, err := sc.WithTransaction(sc, func(sc mongo.SessionContext) (interface{}, error) {
			return nil, fn(sc)
		})
		return err
	})
	if err == nil {
		return nil
	}

	if IsNotSupported(err) {
		if log != nil {
			log.Warn("transactions not supported, running without atomicity",
				zap.Error(err))
		}
		return fn(ctx)
	}

	return err
}

// notSupportedCodes are server error codes returned when a transaction
// is attempted on a deployment that cannot run one.
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation
	51:  true, // transaction numbers require a replica set
	263: true, // OperationNotSupportedInTransaction
}

// IsNotSupported reports whether err indicates the server cannot run
// transactions, as opposed to a transaction that ran and failed.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return notSupportedCodes[cmdErr.Code]
	}

	msg := strings.ToLower(err.Error())
	keywordPairs := [][2]string{
		{"transaction", "replica set"},
		{"transaction", "session"},
		{"session", "not supported"},
		{"illegal operation", "transaction"},
	}
	for _, pair := range keywordPairs {
		if strings.Contains(msg, pair[0]) && strings.Contains(msg, pair[1]) {
			return true
		}
	}
	return false
}
