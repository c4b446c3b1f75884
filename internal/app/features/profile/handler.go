// internal/app/features/profile/handler.go
package profile

import (
	uierrors "github.com/dalemusser/housematch/internal/app/features/errors"
	userstore "github.com/dalemusser/housematch/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the account profile handlers.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
	Users  *userstore.Store
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		ErrLog: errLog,
		Users:  userstore.New(db),
	}
}
