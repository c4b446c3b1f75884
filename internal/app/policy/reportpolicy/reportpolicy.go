// Package reportpolicy provides authorization policies for report access.
//
// Authorization rules:
//   - Homebuyers can view the report for their own couple only
//   - Realtors can view reports for the couples they manage
//   - Anyone else cannot access reports
package reportpolicy

import (
	"context"
	"net/http"

	couplestore "github.com/dalemusser/housematch/internal/app/store/couples"
	homebuyerstore "github.com/dalemusser/housematch/internal/app/store/homebuyers"
	realtorstore "github.com/dalemusser/housematch/internal/app/store/realtors"
	"github.com/dalemusser/housematch/internal/app/system/authz"
	"github.com/dalemusser/housematch/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// Policy resolves who may view which couple's report.
type Policy struct {
	homebuyers *homebuyerstore.Store
	realtors   *realtorstore.Store
	couples    *couplestore.Store
}

func New(db *mongo.Database) *Policy {
	return &Policy{
		homebuyers: homebuyerstore.New(db),
		realtors:   realtorstore.New(db),
		couples:    couplestore.New(db),
	}
}

// CanViewReportForCouple reports whether the signed-in user may view
// the report for the given couple. Unknown users and unknown couples
// simply get false.
func (p *Policy) CanViewReportForCouple(ctx context.Context, r *http.Request, coupleID string) (bool, error) {
	role, _, userID, ok := authz.UserCtx(r)
	if !ok || coupleID == "" {
		return false, nil
	}

	switch role {
	case models.RoleHomebuyer:
		hb, err := p.homebuyers.GetByUserID(ctx, userID)
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return hb.CoupleID == coupleID, nil
	case models.RoleRealtor:
		rl, err := p.realtors.GetByUserID(ctx, userID)
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return p.couples.BelongsToRealtor(ctx, coupleID, rl.ID)
	default:
		return false, nil
	}
}
