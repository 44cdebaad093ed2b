package pls

import (
	"testing"
)

func TestNewDesign_Validation(t *testing.T) {
	if _, err := NewDesign(nil, 2); err == nil {
		t.Error("expected error for empty groups")
	}
	if _, err := NewDesign([]int{5, 0}, 2); err == nil {
		t.Error("expected error for non-positive group size")
	}
	if _, err := NewDesign([]int{5}, 0); err == nil {
		t.Error("expected error for non-positive condition count")
	}
	d, err := NewDesign([]int{3, 4}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.NumSubjects() != 7 || d.NumSamples() != 14 || d.NumCells() != 4 {
		t.Errorf("wrong counts: subjects=%d samples=%d cells=%d",
			d.NumSubjects(), d.NumSamples(), d.NumCells())
	}
}

func TestDesign_CheckSamples(t *testing.T) {
	d, _ := NewDesign([]int{3, 4}, 2)
	if err := d.CheckSamples(14); err != nil {
		t.Errorf("unexpected error for matching count: %v", err)
	}
	if err := d.CheckSamples(13); err == nil {
		t.Error("expected error for mismatched count")
	}
}

func TestDesign_SampleIndex_Layout(t *testing.T) {
	// Two groups of sizes 2 and 3, two conditions. Rows must be group-major,
	// condition-major, subject-minor.
	d, _ := NewDesign([]int{2, 3}, 2)

	cases := []struct {
		g, c, j int
		want    int
	}{
		{0, 0, 0, 0},
		{0, 0, 1, 1},
		{0, 1, 0, 2},
		{0, 1, 1, 3},
		{1, 0, 0, 4},
		{1, 0, 2, 6},
		{1, 1, 0, 7},
		{1, 1, 2, 9},
	}
	for _, tc := range cases {
		if got := d.SampleIndex(tc.g, tc.c, tc.j); got != tc.want {
			t.Errorf("SampleIndex(%d,%d,%d) = %d, want %d", tc.g, tc.c, tc.j, got, tc.want)
		}
	}
}

func TestDesign_Dummy_Properties(t *testing.T) {
	d, _ := NewDesign([]int{2, 3}, 2)
	dummy := d.Dummy()

	r, c := dummy.Dims()
	if r != 10 || c != 4 {
		t.Fatalf("dummy dims = %dx%d, want 10x4", r, c)
	}

	// Every row belongs to exactly one cell.
	for i := 0; i < r; i++ {
		sum := 0.0
		for j := 0; j < c; j++ {
			sum += dummy.At(i, j)
		}
		if sum != 1 {
			t.Errorf("row %d has %g cells set, want 1", i, sum)
		}
	}

	// Column sums match cell sizes: group-major, conditions adjacent.
	wantSizes := []float64{2, 2, 3, 3}
	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += dummy.At(i, j)
		}
		if sum != wantSizes[j] {
			t.Errorf("column %d sums to %g, want %g", j, sum, wantSizes[j])
		}
	}

	// Cell rows agree with the index math.
	for g := 0; g < d.NumGroups(); g++ {
		for cond := 0; cond < d.NCond; cond++ {
			col := g*d.NCond + cond
			rows := CellRows(dummy, col)
			if len(rows) != d.Groups[g] {
				t.Fatalf("cell %d has %d rows, want %d", col, len(rows), d.Groups[g])
			}
			for j, row := range rows {
				if want := d.SampleIndex(g, cond, j); row != want {
					t.Errorf("cell %d row %d = %d, want %d", col, j, row, want)
				}
			}
		}
	}
}

func TestDesign_GroupRows(t *testing.T) {
	d, _ := NewDesign([]int{2, 3}, 2)
	rows := d.GroupRows(1)
	if len(rows) != 6 {
		t.Fatalf("group 1 has %d rows, want 6", len(rows))
	}
	if rows[0] != 4 || rows[5] != 9 {
		t.Errorf("group 1 spans [%d, %d], want [4, 9]", rows[0], rows[5])
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(MethodBehavioral); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	bad := cfg
	bad.NPerm = -1
	if err := bad.Validate(MethodBehavioral); err == nil {
		t.Error("expected error for negative permutation count")
	}

	bad = cfg
	bad.TestSize = 1
	if err := bad.Validate(MethodBehavioral); err == nil {
		t.Error("expected error for test size of 1")
	}

	bad = cfg
	bad.CI = 0
	if err := bad.Validate(MethodBehavioral); err == nil {
		t.Error("expected error for zero confidence level")
	}

	bad = cfg
	bad.MeanCentering = CenteringMode(7)
	if err := bad.Validate(MethodMeanCentered); err == nil {
		t.Error("expected error for unknown centering mode")
	}
	if err := bad.Validate(MethodBehavioral); err != nil {
		t.Errorf("centering mode should not matter for behavioral: %v", err)
	}
}
