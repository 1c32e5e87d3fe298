package symbolic

import (
	"errors"
	"testing"
)

func TestLimitInfMassAction(t *testing.T) {
	// k*d_s*d_i/N * N^2 / N -> k*d_s*d_i
	e := MulOf(S("k"), S("d_x_s"), S("d_x_i"), PowOf(S("N"), N(-1)), PowOf(S("N"), N(2)), PowOf(S("N"), N(-1)))
	got, err := LimitInf(e, "N")
	if err != nil {
		t.Fatal(err)
	}
	want := MulOf(S("k"), S("d_x_s"), S("d_x_i"))
	if !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestLimitInfVanishing(t *testing.T) {
	e := MulOf(S("c"), PowOf(S("N"), N(-1)))
	got, err := LimitInf(e, "N")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(N(0)) {
		t.Errorf("expected 0, got %s", got)
	}
}

func TestLimitInfNoOccurrence(t *testing.T) {
	e := MulOf(N(-2), S("d_x_i"))
	got, err := LimitInf(e, "N")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(e) {
		t.Errorf("expected the expression unchanged, got %s", got)
	}
}

func TestLimitInfDivergent(t *testing.T) {
	_, err := LimitInf(MulOf(S("d_x_i"), S("N")), "N")
	if !errors.Is(err, ErrDivergentLimit) {
		t.Fatalf("expected ErrDivergentLimit, got %v", err)
	}
	_, err = LimitInf(S("N"), "N")
	if !errors.Is(err, ErrDivergentLimit) {
		t.Fatalf("expected ErrDivergentLimit for bare symbol, got %v", err)
	}
}

func TestLimitInfSum(t *testing.T) {
	// a + b/N -> a
	e := AddOf(S("a"), MulOf(S("b"), PowOf(S("N"), N(-1))))
	got, err := LimitInf(e, "N")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(S("a")) {
		t.Errorf("expected a, got %s", got)
	}
}

func TestLimitInfMax(t *testing.T) {
	// max(d_a, d_b/N) -> max(d_a, 0)
	e := MaxOf(S("d_a"), MulOf(S("d_b"), PowOf(S("N"), N(-1))))
	got, err := LimitInf(e, "N")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(MaxOf(S("d_a"), N(0))) {
		t.Errorf("expected max(0, d_a), got %s", got)
	}
}

func TestLimitInfInsideQuotient(t *testing.T) {
	// d_a*d_b*N^2 / (N^2 * max(d_a, d_b)) -> d_a*d_b/max(d_a, d_b)
	e := MulOf(S("d_a"), S("d_b"), PowOf(S("N"), N(2)), PowOf(S("N"), N(-2)), PowOf(MaxOf(S("d_a"), S("d_b")), N(-1)))
	got, err := LimitInf(e, "N")
	if err != nil {
		t.Fatal(err)
	}
	want := MulOf(S("d_a"), S("d_b"), PowOf(MaxOf(S("d_a"), S("d_b")), N(-1)))
	if !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}
