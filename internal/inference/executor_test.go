package inference

import (
	"context"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"gonum.org/v1/gonum/mat"

	"plskit/internal/errors"
)

func TestSequential_RunsAllUnitsInOrder(t *testing.T) {
	var order []int
	err := Sequential{}.Map(context.Background(), 5, func(_ context.Context, i int) error {
		order = append(order, i)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("unit order = %v, want ascending", order)
		}
	}
}

func TestSequential_ErrorNamesUnit(t *testing.T) {
	err := Sequential{}.Map(context.Background(), 5, func(_ context.Context, i int) error {
		if i == 3 {
			return errors.Numerical("boom")
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "unit 3") {
		t.Errorf("error %q does not name the failing unit", err.Error())
	}
}

func TestParallel_RunsAllUnits(t *testing.T) {
	var count int64
	err := Parallel{Workers: 4}.Map(context.Background(), 100, func(_ context.Context, i int) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 100 {
		t.Errorf("ran %d units, want 100", count)
	}
}

func TestParallel_PropagatesError(t *testing.T) {
	err := Parallel{Workers: 4}.Map(context.Background(), 50, func(_ context.Context, i int) error {
		if i == 17 {
			return errors.Numerical("boom")
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.GetCode(err) != errors.CodeNumericalError {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.CodeNumericalError)
	}
}

func TestForWorkers_Selection(t *testing.T) {
	if _, ok := ForWorkers(0).(Sequential); !ok {
		t.Error("0 workers should select sequential execution")
	}
	if _, ok := ForWorkers(1).(Sequential); !ok {
		t.Error("1 worker should select sequential execution")
	}
	p, ok := ForWorkers(4).(Parallel)
	if !ok || p.Workers != 4 {
		t.Error("4 workers should select a 4-worker pool")
	}
}

func TestRunningMoments_MatchesDirectStdDev(t *testing.T) {
	obs := []*mat.Dense{
		mat.NewDense(2, 2, []float64{1, 10, 100, -1}),
		mat.NewDense(2, 2, []float64{2, 20, 50, -2}),
		mat.NewDense(2, 2, []float64{3, 30, 75, -3}),
		mat.NewDense(2, 2, []float64{4, 40, 25, -4}),
	}
	m := NewRunningMoments(2, 2)
	for _, o := range obs {
		m.Add(o)
	}
	if m.Count() != 4 {
		t.Fatalf("count = %d, want 4", m.Count())
	}

	se := m.StdErr()
	mean := m.Mean()
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			sum, sumSq := 0.0, 0.0
			for _, o := range obs {
				sum += o.At(i, j)
			}
			avg := sum / 4
			for _, o := range obs {
				d := o.At(i, j) - avg
				sumSq += d * d
			}
			want := math.Sqrt(sumSq / 3)
			if math.Abs(se.At(i, j)-want) > 1e-10 {
				t.Errorf("stderr(%d,%d) = %g, want %g", i, j, se.At(i, j), want)
			}
			if math.Abs(mean.At(i, j)-avg) > 1e-12 {
				t.Errorf("mean(%d,%d) = %g, want %g", i, j, mean.At(i, j), avg)
			}
		}
	}
}

func TestRunningMoments_ClampsRoundOff(t *testing.T) {
	// Identical observations can leave a tiny negative variance from
	// floating-point cancellation; the result must be 0, not NaN.
	m := NewRunningMoments(1, 1)
	for i := 0; i < 3; i++ {
		m.Add(mat.NewDense(1, 1, []float64{0.1}))
	}
	se := m.StdErr()
	if math.IsNaN(se.At(0, 0)) {
		t.Error("stderr is NaN for constant observations")
	}
	if se.At(0, 0) > 1e-8 {
		t.Errorf("stderr = %g for constant observations, want ~0", se.At(0, 0))
	}
}
