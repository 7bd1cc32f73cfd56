package utility_test

import (
	"errors"
	"testing"

	"github.com/felixgeelhaar/negotiate-go/domain/outcome"
	"github.com/felixgeelhaar/negotiate-go/domain/utility"
)

func testSpace(t *testing.T) *outcome.Space {
	t.Helper()

	s, err := outcome.NewSpace(
		outcome.NewIssue("price", "low", "high"),
		outcome.NewIssue("qty", "1", "2"),
	)
	if err != nil {
		t.Fatalf("NewSpace() error = %v", err)
	}
	return s
}

func TestLinear_Evaluate(t *testing.T) {
	t.Parallel()

	space := testSpace(t)
	fn := utility.NewLinear(space,
		map[string]float64{"price": 0.7, "qty": 0.3},
		map[string]map[string]float64{
			"price": {"low": 0.0, "high": 1.0},
			"qty":   {"1": 0.5, "2": 1.0},
		},
	)

	t.Run("weighted sum of value scores", func(t *testing.T) {
		t.Parallel()

		got, err := fn.Evaluate(outcome.New("high", "2"))
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		want := 0.7*1.0 + 0.3*1.0
		if got != want {
			t.Errorf("Evaluate() = %v, want %v", got, want)
		}
	})

	t.Run("unscored value is outside the domain", func(t *testing.T) {
		t.Parallel()

		_, err := fn.Evaluate(outcome.New("medium", "1"))
		if !errors.Is(err, utility.ErrOutsideDomain) {
			t.Errorf("Evaluate() error = %v, want ErrOutsideDomain", err)
		}
	})

	t.Run("wrong arity is outside the domain", func(t *testing.T) {
		t.Parallel()

		_, err := fn.Evaluate(outcome.New("low"))
		if !errors.Is(err, utility.ErrOutsideDomain) {
			t.Errorf("Evaluate() error = %v, want ErrOutsideDomain", err)
		}
	})

	t.Run("missing weight defaults to one", func(t *testing.T) {
		t.Parallel()

		unweighted := utility.NewLinear(space, nil, map[string]map[string]float64{
			"price": {"low": 0.25, "high": 0.75},
			"qty":   {"1": 0.0, "2": 0.0},
		})
		got, err := unweighted.Evaluate(outcome.New("high", "1"))
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		if got != 0.75 {
			t.Errorf("Evaluate() = %v, want 0.75", got)
		}
	})
}

func TestTable_Evaluate(t *testing.T) {
	t.Parallel()

	fn := utility.NewTable(nil)
	fn.Set(outcome.New("low", "1"), 0.4)

	got, err := fn.Evaluate(outcome.New("low", "1"))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if got != 0.4 {
		t.Errorf("Evaluate() = %v, want 0.4", got)
	}

	if _, err := fn.Evaluate(outcome.New("high", "2")); !errors.Is(err, utility.ErrOutsideDomain) {
		t.Errorf("Evaluate() error = %v, want ErrOutsideDomain", err)
	}
}

func TestOpposite_Evaluate(t *testing.T) {
	t.Parallel()

	base := utility.Func(func(o outcome.Outcome) (float64, error) {
		return 0.3, nil
	})
	op := utility.NewOpposite(base)

	got, err := op.Evaluate(outcome.New("low", "1"))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if got != 0.7 {
		t.Errorf("Evaluate() = %v, want 0.7", got)
	}

	failing := utility.NewOpposite(utility.Func(func(outcome.Outcome) (float64, error) {
		return 0, utility.ErrOutsideDomain
	}))
	if _, err := failing.Evaluate(nil); !errors.Is(err, utility.ErrOutsideDomain) {
		t.Errorf("Evaluate() error = %v, want ErrOutsideDomain", err)
	}
}
