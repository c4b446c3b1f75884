// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureRealtors(ctx, db); err != nil {
		problems = append(problems, "realtors: "+err.Error())
	}
	if err := ensureHomebuyers(ctx, db); err != nil {
		problems = append(problems, "homebuyers: "+err.Error())
	}
	if err := ensureCouples(ctx, db); err != nil {
		problems = append(problems, "couples: "+err.Error())
	}
	if err := ensureHouses(ctx, db); err != nil {
		problems = append(problems, "houses: "+err.Error())
	}
	if err := ensureCategories(ctx, db); err != nil {
		problems = append(problems, "categories: "+err.Error())
	}
	if err := ensureCategoryWeights(ctx, db); err != nil {
		problems = append(problems, "category_weights: "+err.Error())
	}
	if err := ensureGrades(ctx, db); err != nil {
		problems = append(problems, "grades: "+err.Error())
	}
	if err := ensurePendingCouples(ctx, db); err != nil {
		problems = append(problems, "pending_couples: "+err.Error())
	}
	if err := ensurePendingHomebuyers(ctx, db); err != nil {
		problems = append(problems, "pending_homebuyers: "+err.Error())
	}
	if err := ensureAuditEvents(ctx, db); err != nil {
		problems = append(problems, "audit_events: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func dupHelper(collName, desiredSig string) string {
	if collName == "users" && strings.Contains(desiredSig, "email_ci:1") {
		return " — duplicates exist on users.email_ci. Example finder:\n" +
			`db.users.aggregate([{ $group: { _id: "$email_ci", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`
	}
	return ""
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()
		zap.L().Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique))

		// 1) Load existing indexes
		existing := map[string]existingIndex{} // sig -> index
		cur, err := coll.Indexes().List(ctx)
		if err == nil {
			defer cur.Close(ctx)
			for cur.Next(ctx) {
				var idx existingIndex
				if err := cur.Decode(&idx); err != nil {
					zap.L().Warn("failed to decode existing index",
						zap.String("collection", coll.Name()),
						zap.Error(err))
					continue
				}
				existing[keySig(idx.Key)] = idx
			}
		}

		if ex, ok := existing[desiredSig]; ok {
			// Same key pattern exists already.
			if sameBoolPtr(desiredUnique, ex.Unique) {
				// Name alignment: if the name differs, drop & recreate with the desired name.
				if desiredName != "" && ex.Name != desiredName {
					zap.L().Info("renaming index to align with desired name",
						zap.String("collection", coll.Name()),
						zap.String("from", ex.Name),
						zap.String("to", desiredName),
						zap.String("keys", desiredSig))

					if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
						errs = append(errs, fmt.Sprintf("%s(%s): rename drop failed: %v", coll.Name(), desiredName, err))
						continue
					}
					if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
						errs = append(errs, fmt.Sprintf("%s(%s): rename create failed: %v", coll.Name(), desiredName, err))
						continue
					}
					zap.L().Info("index renamed",
						zap.String("collection", coll.Name()),
						zap.String("name", desiredName),
						zap.String("keys", desiredSig),
						zap.String("took", time.Since(start).String()))
					continue
				}

				// Names aligned (or we don't care) → reuse
				zap.L().Info("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig),
					zap.Bool("unique", ex.Unique != nil && *ex.Unique),
					zap.String("took", time.Since(start).String()))
				continue
			}

			// Options mismatch (e.g., upgrading to unique). Drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
					errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)%s",
						coll.Name(), desiredName, dupHelper(coll.Name(), desiredSig)))
				} else {
					errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
				}
				continue
			}
			zap.L().Info("index dropped and recreated",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Bool("unique", desiredUnique != nil && *desiredUnique),
				zap.String("took", time.Since(start).String()))
			continue
		}

		// 2) No existing index with the same keys: create it.
		created, err := coll.Indexes().CreateOne(ctx, m)
		if err == nil {
			zap.L().Info("index ensured",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("created_name", created),
				zap.String("keys", desiredSig),
				zap.Bool("unique", desiredUnique != nil && *desiredUnique),
				zap.String("took", time.Since(start).String()))
			continue
		}

		if isOptionsConflictErr(err) {
			// An index with the same keys exists under another name or with
			// other options. Find it, drop it, and recreate.
			match := findBySig(ctx, coll, desiredSig)
			if match != nil {
				if sameBoolPtr(desiredUnique, match.Unique) {
					zap.L().Info("reusing existing index (post-conflict)",
						zap.String("collection", coll.Name()),
						zap.String("name", match.Name),
						zap.String("keys", desiredSig),
						zap.String("took", time.Since(start).String()))
					continue
				}
				if _, dropErr := coll.Indexes().DropOne(ctx, match.Name); dropErr != nil {
					zap.L().Warn("failed to drop conflicting index",
						zap.String("collection", coll.Name()),
						zap.String("name", match.Name),
						zap.Error(dropErr))
				}
				if _, e := coll.Indexes().CreateOne(ctx, m); e != nil {
					if isDuplicateKeyErr(e) && desiredUnique != nil && *desiredUnique {
						errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)%s",
							coll.Name(), desiredName, dupHelper(coll.Name(), desiredSig)))
					} else {
						errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, e))
					}
					continue
				}
				zap.L().Info("index dropped and recreated (post-conflict)",
					zap.String("collection", coll.Name()),
					zap.String("name", desiredName),
					zap.String("keys", desiredSig),
					zap.String("took", time.Since(start).String()))
				continue
			}
		}

		zap.L().Warn("index ensure failed",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()),
			zap.Error(err))
		errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func findBySig(ctx context.Context, coll *mongo.Collection, sig string) *existingIndex {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if keySig(idx.Key) == sig {
			return &idx
		}
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Email must be unique across all users (case/diacritics folded)
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_emailci"),
		},
		// Name sort for realtor-facing lists, stable tiebreak by _id
		{
			Keys: bson.D{
				{Key: "last_name", Value: 1},
				{Key: "first_name", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().SetName("idx_users_lastname_firstname_id"),
		},
	})
}

func ensureRealtors(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("realtors")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One realtor record per user. Paired with the same constraint on
		// homebuyers this keeps a user from holding both roles by accident;
		// holding both at once is treated as data corruption.
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_realtors_user"),
		},
	})
}

func ensureHomebuyers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("homebuyers")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One homebuyer record per user
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_homebuyers_user"),
		},
		// Partner lookups and the two-per-couple cap check
		{
			Keys:    bson.D{{Key: "couple_id", Value: 1}},
			Options: options.Index().SetName("idx_homebuyers_couple"),
		},
	})
}

func ensureCouples(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("couples")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Realtor dashboard: list the couples a realtor manages
		{
			Keys:    bson.D{{Key: "realtor_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_couples_realtor_created"),
		},
	})
}

func ensureHouses(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("houses")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// No duplicate nicknames inside the same couple (case-folded)
		{
			Keys:    bson.D{{Key: "couple_id", Value: 1}, {Key: "nickname_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_houses_couple_nicknameci"),
		},
		// House list pages, newest first
		{
			Keys:    bson.D{{Key: "couple_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_houses_couple_created"),
		},
	})
}

func ensureCategories(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("categories")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// No duplicate category summaries inside the same couple (case-folded)
		{
			Keys:    bson.D{{Key: "couple_id", Value: 1}, {Key: "summary_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_categories_couple_summaryci"),
		},
		// Category list pages, alphabetical
		{
			Keys:    bson.D{{Key: "couple_id", Value: 1}, {Key: "summary_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_categories_couple_summaryci_id"),
		},
	})
}

func ensureCategoryWeights(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("category_weights")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Exactly one weight per (homebuyer, category)
		{
			Keys:    bson.D{{Key: "homebuyer_id", Value: 1}, {Key: "category_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_weights_homebuyer_category"),
		},
		// Cascade deletes when a category is removed
		{
			Keys:    bson.D{{Key: "category_id", Value: 1}},
			Options: options.Index().SetName("idx_weights_category"),
		},
	})
}

func ensureGrades(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("grades")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Exactly one score per (house, category, homebuyer)
		{
			Keys: bson.D{
				{Key: "house_id", Value: 1},
				{Key: "category_id", Value: 1},
				{Key: "homebuyer_id", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_grades_house_category_homebuyer"),
		},
		// Evaluation forms load one homebuyer's grades for one house
		{
			Keys:    bson.D{{Key: "homebuyer_id", Value: 1}, {Key: "house_id", Value: 1}},
			Options: options.Index().SetName("idx_grades_homebuyer_house"),
		},
		// Report aggregation and house cascade deletes
		{
			Keys:    bson.D{{Key: "house_id", Value: 1}},
			Options: options.Index().SetName("idx_grades_house"),
		},
		// Category cascade deletes
		{
			Keys:    bson.D{{Key: "category_id", Value: 1}},
			Options: options.Index().SetName("idx_grades_category"),
		},
	})
}

func ensurePendingCouples(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("pending_couples")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Realtor invite dashboard
		{
			Keys:    bson.D{{Key: "realtor_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_pcouples_realtor_created"),
		},
	})
}

func ensurePendingHomebuyers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("pending_homebuyers")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Signup links resolve by token
		{
			Keys:    bson.D{{Key: "registration_token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_phomebuyers_token"),
		},
		// An email address can hold at most one open invitation
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_phomebuyers_emailci"),
		},
		// Invitation pair lookups and cascade deletes
		{
			Keys:    bson.D{{Key: "pending_couple_id", Value: 1}},
			Options: options.Index().SetName("idx_phomebuyers_pcouple"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("audit_events")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Site-wide recent activity (latest-first)
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_created"),
		},
		// Per-user activity
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_audit_user_created"),
		},
	})
}
