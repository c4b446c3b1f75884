// internal/app/features/reports/report.go
package reports

import (
	"sort"

	"github.com/dalemusser/housematch/internal/domain/models"
)

// BuyerScore is one homebuyer's weighted average for a house.
type BuyerScore struct {
	HomebuyerID string
	Name        string
	Score       float64
	// Graded is false when the homebuyer has no usable scores for the
	// house, which happens only before the grading backfill has run.
	Graded bool
}

// HouseReport is one ranked row of the couple report.
type HouseReport struct {
	House       models.House
	BuyerScores []BuyerScore
	// CoupleScore is the mean of the graded buyer scores.
	CoupleScore float64
	Rank        int
}

// buyer pairs a homebuyer with a display name for report rows.
type buyer struct {
	ID   string
	Name string
}

// buildReport computes each homebuyer's weighted average per house and
// ranks the houses by the couple's combined score, best first. A
// category a homebuyer weighted w and scored s contributes w*s to the
// numerator and w to the denominator of that homebuyer's average.
func buildReport(houses []models.House, buyers []buyer, weights []models.CategoryWeight, grades []models.Grade) []HouseReport {
	// weight per (homebuyer, category)
	type wkey struct{ homebuyerID, categoryID string }
	weightOf := make(map[wkey]int, len(weights))
	for _, w := range weights {
		weightOf[wkey{w.HomebuyerID, w.CategoryID}] = w.Weight
	}

	// score per (house, homebuyer, category)
	type gkey struct{ houseID, homebuyerID, categoryID string }
	scoreOf := make(map[gkey]int, len(grades))
	for _, g := range grades {
		scoreOf[gkey{g.HouseID, g.HomebuyerID, g.CategoryID}] = g.Score
	}

	// Category IDs come from the weight rows so a grade against a
	// deleted category cannot sneak into the averages.
	categoriesOf := make(map[string][]string)
	for _, w := range weights {
		categoriesOf[w.HomebuyerID] = append(categoriesOf[w.HomebuyerID], w.CategoryID)
	}

	reports := make([]HouseReport, 0, len(houses))
	for _, house := range houses {
		row := HouseReport{House: house}
		var total float64
		var graded int

		for _, b := range buyers {
			bs := BuyerScore{HomebuyerID: b.ID, Name: b.Name}
			var num, den float64
			for _, catID := range categoriesOf[b.ID] {
				score, ok := scoreOf[gkey{house.ID, b.ID, catID}]
				if !ok {
					continue
				}
				w := float64(weightOf[wkey{b.ID, catID}])
				num += w * float64(score)
				den += w
			}
			if den > 0 {
				bs.Score = num / den
				bs.Graded = true
				total += bs.Score
				graded++
			}
			row.BuyerScores = append(row.BuyerScores, bs)
		}

		if graded > 0 {
			row.CoupleScore = total / float64(graded)
		}
		reports = append(reports, row)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CoupleScore > reports[j].CoupleScore
	})
	for i := range reports {
		reports[i].Rank = i + 1
	}
	return reports
}
