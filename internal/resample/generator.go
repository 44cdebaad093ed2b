package resample

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"plskit/domain/pls"
	"plskit/internal/errors"
)

// UnitRNG yields the generator for one resample column. Generators are
// derived from the column's index alone, so a column's draws do not depend on
// how many columns precede it.
type UnitRNG func(index int) *rand.Rand

// layout caches the subject/sample index tables used by every draw: each
// subject owns NCond sample rows, and resampling operates at the subject
// level before expanding back out to rows.
type layout struct {
	design        pls.Design
	totalSubjects int
	// sampleOf[s][c] is the sample row of global subject s under condition c.
	sampleOf [][]int
	// subjectStart[g] is the first global subject index of group g.
	subjectStart []int
}

func newLayout(design pls.Design) *layout {
	l := &layout{
		design:        design,
		totalSubjects: design.NumSubjects(),
		subjectStart:  make([]int, design.NumGroups()),
	}
	l.sampleOf = make([][]int, l.totalSubjects)
	subj := 0
	for g, size := range design.Groups {
		l.subjectStart[g] = subj
		for j := 0; j < size; j++ {
			conds := make([]int, design.NCond)
			for c := 0; c < design.NCond; c++ {
				conds[c] = design.SampleIndex(g, c, j)
			}
			l.sampleOf[subj] = conds
			subj++
		}
	}
	return l
}

// subjectRange returns the half-open global subject interval of group g.
func (l *layout) subjectRange(g int) (int, int) {
	return l.subjectStart[g], l.subjectStart[g] + l.design.Groups[g]
}

// expand maps a subject-level assignment to a sample-level column. For the
// row of (group g, condition c, local subject j), the output index is the
// sample row of the assigned subject at condition position condOf(subject, c).
func (l *layout) expand(assign []int, condOf func(subj, c int) int) []int {
	d := l.design
	out := make([]int, d.NumSamples())
	for g, size := range d.Groups {
		for c := 0; c < d.NCond; c++ {
			for j := 0; j < size; j++ {
				src := assign[l.subjectStart[g]+j]
				out[d.SampleIndex(g, c, j)] = l.sampleOf[src][condOf(src, c)]
			}
		}
	}
	return out
}

// Permutations draws count permutation columns. Each column permutes
// condition order within every subject and subject order across the whole
// pool; with more than one group, a candidate is rejected unless at least one
// group's subjects genuinely moved across group boundaries. When the retry
// budget runs out the last draw is kept and the plan is flagged.
func Permutations(design pls.Design, count int, unit UnitRNG) (*Plan, error) {
	if count <= 0 {
		return nil, errors.InvalidInput("permutation count must be positive")
	}
	l := newLayout(design)
	plan := &Plan{Kind: KindPermutation, Design: design, Indices: make([][]int, 0, count)}

	for i := 0; i < count; i++ {
		rng := unit(i)
		var candidate []int
		attempt, duplicated := 0, true
		for duplicated && attempt < maxAttempts {
			attempt++
			duplicated = false

			// Shuffle condition order per subject, then subject order
			// across the pool.
			condOrder := make([][]int, l.totalSubjects)
			for s := range condOrder {
				condOrder[s] = rng.Perm(design.NCond)
			}
			perm := rng.Perm(l.totalSubjects)
			candidate = l.expand(perm, func(subj, c int) int { return condOrder[subj][c] })

			if design.NumGroups() > 1 && !mixesGroups(l, perm) {
				duplicated = true
				continue
			}

			for _, prev := range plan.Indices {
				if intColsEqual(candidate, prev) {
					duplicated = true
					break
				}
			}
		}
		if attempt == maxAttempts {
			plan.noteDuplicates()
		}
		plan.Indices = append(plan.Indices, candidate)
	}
	return plan, nil
}

// mixesGroups reports whether every group received at least one subject from
// outside its own boundary. A group whose slots hold exactly its own subject
// set was merely relabeled, and the candidate must be redrawn.
func mixesGroups(l *layout, perm []int) bool {
	for g := range l.design.Groups {
		lo, hi := l.subjectRange(g)
		inGroup := 0
		for pos := lo; pos < hi; pos++ {
			if perm[pos] >= lo && perm[pos] < hi {
				inGroup++
			}
		}
		if inGroup == hi-lo {
			return false
		}
	}
	return true
}

// Bootstraps draws count bootstrap columns. Within each group, subjects are
// drawn with replacement and sorted; a per-group draw is retried until it
// contains at least ceil(group_size / 2) distinct subjects. Duplicate-column
// history is checked per group rather than over the whole column.
func Bootstraps(design pls.Design, count int, unit UnitRNG) (*Plan, error) {
	if count <= 0 {
		return nil, errors.InvalidInput("bootstrap count must be positive")
	}
	l := newLayout(design)
	plan := &Plan{Kind: KindBootstrap, Design: design, Indices: make([][]int, 0, count)}
	identityCond := func(_, c int) int { return c }

	for i := 0; i < count; i++ {
		rng := unit(i)
		var candidate []int
		attempt, duplicated := 0, true
		for duplicated && attempt < maxAttempts {
			attempt++
			duplicated = false

			assign := make([]int, l.totalSubjects)
			for g := range design.Groups {
				if err := drawGroupBootstrap(l, g, assign, rng); err != nil {
					return nil, err
				}
			}
			candidate = l.expand(assign, identityCond)

			for g := range design.Groups {
				rows := design.GroupRows(g)
				for _, prev := range plan.Indices {
					if intColsEqualOn(candidate, prev, rows) {
						duplicated = true
						break
					}
				}
				if duplicated {
					break
				}
			}
		}
		if attempt == maxAttempts {
			plan.noteDuplicates()
		}
		plan.Indices = append(plan.Indices, candidate)
	}
	return plan, nil
}

// drawGroupBootstrap fills assign over group g's subject slots with a sorted
// with-replacement draw satisfying the minimum-unique floor. The loop is
// capped so an unsatisfiable floor surfaces as an error rather than spinning.
func drawGroupBootstrap(l *layout, g int, assign []int, rng *rand.Rand) error {
	lo, hi := l.subjectRange(g)
	size := hi - lo
	floor := (size + 1) / 2 // ceil(size * 0.5)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		draw := make([]int, size)
		unique := make(map[int]struct{}, size)
		for j := range draw {
			v := lo + rng.Intn(size)
			draw[j] = v
			unique[v] = struct{}{}
		}
		if len(unique) < floor {
			continue
		}
		sort.Ints(draw)
		copy(assign[lo:hi], draw)
		return nil
	}
	return errors.InfeasibleResample(fmt.Sprintf(
		"group %d (size %d) cannot satisfy the %d-unique-subject bootstrap floor after %d attempts",
		g, size, floor, maxAttempts))
}

// SplitHalves draws count boolean columns. Within each group, roughly
// (1 - testSize) of the subjects are marked true, sampling without
// replacement; rounding alternates between ceiling and floor by coin flip so
// fractional targets are not biased in one direction.
func SplitHalves(design pls.Design, count int, testSize float64, unit UnitRNG) (*Plan, error) {
	if count <= 0 {
		return nil, errors.InvalidInput("split count must be positive")
	}
	if testSize < 0 || testSize >= 1 {
		return nil, errors.ConfigInvalid(fmt.Sprintf("test_size must be in [0, 1), got %g", testSize))
	}
	l := newLayout(design)
	plan := &Plan{Kind: KindSplitHalf, Design: design, Masks: make([][]bool, 0, count)}

	for i := 0; i < count; i++ {
		rng := unit(i)
		var candidate []bool
		attempt, duplicated := 0, true
		for duplicated && attempt < maxAttempts {
			attempt++
			duplicated = false

			inHalf := make([]bool, l.totalSubjects)
			for g := range design.Groups {
				lo, hi := l.subjectRange(g)
				size := hi - lo
				target := float64(size) * (1 - testSize)
				var take int
				if rng.Intn(2) == 0 {
					take = int(math.Ceil(target))
				} else {
					take = int(math.Floor(target))
				}
				for _, j := range rng.Perm(size)[:take] {
					inHalf[lo+j] = true
				}
			}

			candidate = make([]bool, design.NumSamples())
			for g, size := range design.Groups {
				for c := 0; c < design.NCond; c++ {
					for j := 0; j < size; j++ {
						candidate[design.SampleIndex(g, c, j)] = inHalf[l.subjectStart[g]+j]
					}
				}
			}

			for _, prev := range plan.Masks {
				if boolColsEqual(candidate, prev) {
					duplicated = true
					break
				}
			}
		}
		if attempt == maxAttempts {
			plan.noteDuplicates()
		}
		plan.Masks = append(plan.Masks, candidate)
	}
	return plan, nil
}
