package reports

import (
	"math"
	"testing"

	"github.com/dalemusser/housematch/internal/domain/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuildReport_WeightedAveragesAndRanking(t *testing.T) {
	houses := []models.House{
		{ID: "h1", Nickname: "Craftsman"},
		{ID: "h2", Nickname: "Bungalow"},
	}
	buyers := []buyer{
		{ID: "a", Name: "Alex"},
		{ID: "b", Name: "Jamie"},
	}
	weights := []models.CategoryWeight{
		{HomebuyerID: "a", CategoryID: "c1", Weight: 5},
		{HomebuyerID: "a", CategoryID: "c2", Weight: 1},
		{HomebuyerID: "b", CategoryID: "c1", Weight: 3},
		{HomebuyerID: "b", CategoryID: "c2", Weight: 3},
	}
	grades := []models.Grade{
		{HouseID: "h1", HomebuyerID: "a", CategoryID: "c1", Score: 4},
		{HouseID: "h1", HomebuyerID: "a", CategoryID: "c2", Score: 2},
		{HouseID: "h1", HomebuyerID: "b", CategoryID: "c1", Score: 5},
		{HouseID: "h1", HomebuyerID: "b", CategoryID: "c2", Score: 1},
		{HouseID: "h2", HomebuyerID: "a", CategoryID: "c1", Score: 2},
		{HouseID: "h2", HomebuyerID: "a", CategoryID: "c2", Score: 2},
	}

	rows := buildReport(houses, buyers, weights, grades)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	// Craftsman: Alex (5*4+1*2)/6, Jamie (3*5+3*1)/6, couple mean of both.
	top := rows[0]
	if top.House.ID != "h1" || top.Rank != 1 {
		t.Fatalf("top row = %s rank %d, want h1 rank 1", top.House.ID, top.Rank)
	}
	if !almostEqual(top.BuyerScores[0].Score, 22.0/6.0) {
		t.Errorf("Alex score = %f, want %f", top.BuyerScores[0].Score, 22.0/6.0)
	}
	if !almostEqual(top.BuyerScores[1].Score, 3.0) {
		t.Errorf("Jamie score = %f, want 3", top.BuyerScores[1].Score)
	}
	if !almostEqual(top.CoupleScore, (22.0/6.0+3.0)/2.0) {
		t.Errorf("couple score = %f", top.CoupleScore)
	}

	// Bungalow: only Alex has graded it, so the couple score is his.
	second := rows[1]
	if second.House.ID != "h2" || second.Rank != 2 {
		t.Fatalf("second row = %s rank %d, want h2 rank 2", second.House.ID, second.Rank)
	}
	if !almostEqual(second.CoupleScore, 2.0) {
		t.Errorf("couple score = %f, want 2", second.CoupleScore)
	}
	if second.BuyerScores[1].Graded {
		t.Error("Jamie should be ungraded for h2")
	}
}

func TestBuildReport_IgnoresGradesWithoutWeightRows(t *testing.T) {
	houses := []models.House{{ID: "h1", Nickname: "Craftsman"}}
	buyers := []buyer{{ID: "a", Name: "Alex"}}
	weights := []models.CategoryWeight{
		{HomebuyerID: "a", CategoryID: "c1", Weight: 2},
	}
	// c2 was deleted after grading; its leftover grade must not count.
	grades := []models.Grade{
		{HouseID: "h1", HomebuyerID: "a", CategoryID: "c1", Score: 4},
		{HouseID: "h1", HomebuyerID: "a", CategoryID: "c2", Score: 1},
	}

	rows := buildReport(houses, buyers, weights, grades)
	if !almostEqual(rows[0].BuyerScores[0].Score, 4.0) {
		t.Errorf("score = %f, want 4", rows[0].BuyerScores[0].Score)
	}
}

func TestBuildReport_NoHouses(t *testing.T) {
	rows := buildReport(nil, []buyer{{ID: "a", Name: "Alex"}}, nil, nil)
	if len(rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(rows))
	}
}
