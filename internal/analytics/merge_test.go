package analytics

import (
	"testing"

	"github.com/onnwee/livesight/internal/record"
)

func TestMergeRevenue(t *testing.T) {
	gifts := []record.Gift{
		{Time: 5, UserID: 1, Price: 1},
		{Time: 50, UserID: 2, Price: 2},
	}
	supers := []record.SuperMessage{
		{Time: 10, UserID: 3, Price: 30},
	}
	var guards []record.GuardPurchase

	merged := MergeRevenue(gifts, supers, guards)
	wantTimes := []int64{5, 10, 50}
	if len(merged) != len(wantTimes) {
		t.Fatalf("MergeRevenue() returned %d entries, want %d", len(merged), len(wantTimes))
	}
	for i, want := range wantTimes {
		if merged[i].Time != want {
			t.Errorf("merged[%d].Time = %d, want %d", i, merged[i].Time, want)
		}
	}
}

func TestMergeRevenue_Conservation(t *testing.T) {
	gifts := []record.Gift{
		{Time: 1, UserID: 1, Price: 0.1},
		{Time: 9, UserID: 1, Price: 0.2},
		{Time: 100, UserID: 2, Price: 52},
	}
	supers := []record.SuperMessage{
		{Time: 9, UserID: 3, Price: 30},
		{Time: 200, UserID: 3, Price: 50},
	}
	guards := []record.GuardPurchase{
		{Time: 150, UserID: 4, Price: 198},
	}

	merged := MergeRevenue(gifts, supers, guards)
	if len(merged) != len(gifts)+len(supers)+len(guards) {
		t.Fatalf("merge lost entries: got %d", len(merged))
	}
	for i := 1; i < len(merged); i++ {
		if merged[i].Time < merged[i-1].Time {
			t.Errorf("merged entries out of order at %d: %v", i, merged)
		}
	}

	var want float64
	for _, g := range gifts {
		want += g.Price
	}
	for _, s := range supers {
		want += s.Price
	}
	for _, g := range guards {
		want += g.Price
	}
	if got := TotalPrice(merged); got != want {
		t.Errorf("TotalPrice() = %v, want %v", got, want)
	}
}

func TestMergeRevenue_StableOnTies(t *testing.T) {
	gifts := []record.Gift{{Time: 10, UserID: 1, Price: 1}}
	supers := []record.SuperMessage{{Time: 10, UserID: 2, Price: 2}}

	merged := MergeRevenue(gifts, supers, nil)
	if merged[0].UserID != 1 || merged[1].UserID != 2 {
		t.Errorf("tie broke input order: %v", merged)
	}
}
