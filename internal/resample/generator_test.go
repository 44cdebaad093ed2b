package resample

import (
	"math/rand"
	"testing"

	"plskit/domain/pls"
)

func testDesign(t *testing.T, groups []int, nCond int) pls.Design {
	t.Helper()
	d, err := pls.NewDesign(groups, nCond)
	if err != nil {
		t.Fatalf("bad test design: %v", err)
	}
	return d
}

// seededUnits gives each column its own generator keyed by the column index.
func seededUnits(seed int64) UnitRNG {
	return func(index int) *rand.Rand {
		return rand.New(rand.NewSource(seed + int64(index)*7919))
	}
}

func TestPermutations_ColumnsAreBijections(t *testing.T) {
	design := testDesign(t, []int{5, 5}, 2)
	plan, err := Permutations(design, 25, seededUnits(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Count() != 25 {
		t.Fatalf("got %d columns, want 25", plan.Count())
	}

	s := design.NumSamples()
	for i, col := range plan.Indices {
		if len(col) != s {
			t.Fatalf("column %d has %d rows, want %d", i, len(col), s)
		}
		seen := make([]bool, s)
		for _, v := range col {
			if v < 0 || v >= s || seen[v] {
				t.Fatalf("column %d is not a bijection of rows", i)
			}
			seen[v] = true
		}
	}
}

func TestPermutations_MixGroups(t *testing.T) {
	design := testDesign(t, []int{4, 4}, 1)
	plan, err := Permutations(design, 50, seededUnits(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Every column must move at least one subject across the group boundary
	// in every group: a column whose first four rows hold exactly rows 0-3
	// merely relabeled group one.
	for i, col := range plan.Indices {
		for g := 0; g < design.NumGroups(); g++ {
			rows := design.GroupRows(g)
			own := 0
			for _, r := range rows {
				v := col[r]
				if v >= rows[0] && v <= rows[len(rows)-1] {
					own++
				}
			}
			if own == len(rows) {
				t.Errorf("column %d left group %d unmixed", i, g)
			}
		}
	}
}

func TestPermutations_Deterministic(t *testing.T) {
	design := testDesign(t, []int{3, 3}, 2)
	a, err := Permutations(design, 10, seededUnits(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Permutations(design, 10, seededUnits(7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range a.Indices {
		if !intColsEqual(a.Indices[i], b.Indices[i]) {
			t.Fatalf("column %d differs between identically seeded plans", i)
		}
	}
}

func TestPermutations_KeepsLastDrawWhenRetriesRunOut(t *testing.T) {
	// Two one-subject groups admit a single mixing permutation (the swap), so
	// columns past the first exhaust the retry budget. Exhausted columns must
	// still hold a complete draw, with the shortage reported via diagnostics.
	design := testDesign(t, []int{1, 1}, 1)
	plan, err := Permutations(design, 4, seededUnits(11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Count() != 4 {
		t.Fatalf("got %d columns, want 4", plan.Count())
	}

	s := design.NumSamples()
	for i, col := range plan.Indices {
		if len(col) != s {
			t.Fatalf("column %d has %d rows, want %d", i, len(col), s)
		}
		seen := make([]bool, s)
		for _, v := range col {
			if v < 0 || v >= s || seen[v] {
				t.Fatalf("column %d is not a bijection of rows", i)
			}
			seen[v] = true
		}
	}
	if len(plan.Diagnostics) == 0 {
		t.Error("expected a diagnostic for the exhausted retry budget")
	}
}

func TestBootstraps_RowsStayInGroupAndCondition(t *testing.T) {
	design := testDesign(t, []int{10, 10}, 2)
	plan, err := Bootstraps(design, 30, seededUnits(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, col := range plan.Indices {
		for g := 0; g < design.NumGroups(); g++ {
			for c := 0; c < design.NCond; c++ {
				for j := 0; j < design.Groups[g]; j++ {
					row := design.SampleIndex(g, c, j)
					v := col[row]
					lo := design.SampleIndex(g, c, 0)
					hi := design.SampleIndex(g, c, design.Groups[g]-1)
					if v < lo || v > hi {
						t.Fatalf("column %d row %d drawn from outside its cell: %d", i, row, v)
					}
				}
			}
		}
	}
}

func TestBootstraps_UniqueSubjectFloor(t *testing.T) {
	design := testDesign(t, []int{10}, 1)
	plan, err := Bootstraps(design, 50, seededUnits(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Each draw must contain at least ceil(10/2) = 5 distinct subjects.
	for i, col := range plan.Indices {
		unique := make(map[int]struct{})
		for _, v := range col {
			unique[v] = struct{}{}
		}
		if len(unique) < 5 {
			t.Errorf("column %d has %d unique subjects, want >= 5", i, len(unique))
		}
	}
}

func TestBootstraps_SubjectDrawsConsistentAcrossConditions(t *testing.T) {
	design := testDesign(t, []int{4}, 2)
	plan, err := Bootstraps(design, 20, seededUnits(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A subject drawn into slot j must appear at slot j of every condition.
	for i, col := range plan.Indices {
		for j := 0; j < 4; j++ {
			c0 := col[design.SampleIndex(0, 0, j)]
			c1 := col[design.SampleIndex(0, 1, j)]
			// The same subject's rows under the two conditions differ by the
			// condition stride.
			if c1-c0 != design.SampleIndex(0, 1, 0)-design.SampleIndex(0, 0, 0) {
				t.Fatalf("column %d slot %d drew different subjects per condition", i, j)
			}
		}
	}
}

func TestSplitHalves_HalfSizesWithinOne(t *testing.T) {
	design := testDesign(t, []int{20}, 1)
	plan, err := SplitHalves(design, 40, 0.5, seededUnits(6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, mask := range plan.Masks {
		kept := 0
		for _, v := range mask {
			if v {
				kept++
			}
		}
		if kept < 9 || kept > 11 {
			t.Errorf("split %d kept %d of 20, want 9-11", i, kept)
		}
	}
}

func TestSplitHalves_SubjectRowsMoveTogether(t *testing.T) {
	design := testDesign(t, []int{6}, 3)
	plan, err := SplitHalves(design, 10, 0.5, seededUnits(8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, mask := range plan.Masks {
		for j := 0; j < 6; j++ {
			want := mask[design.SampleIndex(0, 0, j)]
			for c := 1; c < 3; c++ {
				if mask[design.SampleIndex(0, c, j)] != want {
					t.Fatalf("split %d separated subject %d's conditions", i, j)
				}
			}
		}
	}
}

func TestSplitHalves_RejectsBadTestSize(t *testing.T) {
	design := testDesign(t, []int{6}, 1)
	if _, err := SplitHalves(design, 5, 1.0, seededUnits(9)); err == nil {
		t.Error("expected error for test size of 1")
	}
	if _, err := SplitHalves(design, 5, -0.1, seededUnits(9)); err == nil {
		t.Error("expected error for negative test size")
	}
}

func TestFromIndices_ShapeValidation(t *testing.T) {
	design := testDesign(t, []int{3}, 1)

	good := [][]int{{0, 1, 2}, {2, 1, 0}}
	plan, err := FromIndices(KindPermutation, design, good, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Count() != 2 {
		t.Errorf("plan count = %d, want 2", plan.Count())
	}

	if _, err := FromIndices(KindPermutation, design, good, 3); err == nil {
		t.Error("expected error for column count mismatch")
	}
	if _, err := FromIndices(KindPermutation, design, [][]int{{0, 1}}, 1); err == nil {
		t.Error("expected error for row count mismatch")
	}
	if _, err := FromIndices(KindSplitHalf, design, good, 2); err == nil {
		t.Error("expected error for wrong plan kind")
	}
}

func TestFromMasks_ShapeValidation(t *testing.T) {
	design := testDesign(t, []int{3}, 1)

	if _, err := FromMasks(design, [][]bool{{true, false, true}}, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := FromMasks(design, [][]bool{{true, false}}, 1); err == nil {
		t.Error("expected error for row count mismatch")
	}
}
