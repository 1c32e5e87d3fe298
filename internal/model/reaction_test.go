package model

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func sirRegistry(t *testing.T) *VariableRegistry {
	t.Helper()
	vars, err := NewVariableRegistry([]string{"x_s", "x_i", "x_r"})
	if err != nil {
		t.Fatal(err)
	}
	return vars
}

func TestParseReactionUpdateVectors(t *testing.T) {
	vars := sirRegistry(t)
	cases := []struct {
		equation string
		want     []int
	}{
		{"x_s => x_i", []int{-1, 1, 0}},
		{"x_s + x_i => x_r", []int{-1, -1, 1}},
		{"3x_s + x_i => x_r", []int{-3, -1, 1}},
		{"x_s + x_i => x_i + x_i", []int{-1, 1, 0}},
		{"x_i => x_i", []int{0, 0, 0}}, // pure catalysis, accepted
		{"=> x_s", []int{1, 0, 0}},
		{"x_r =>", []int{0, 0, -1}},
		{"2 x_s => x_r", []int{-2, 0, 1}},
	}
	for _, tc := range cases {
		r, err := ParseReaction(tc.equation, vars)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.equation, err)
			continue
		}
		if got := r.UpdateVector(); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%q: update vector %v, want %v", tc.equation, got, tc.want)
		}
	}
}

func TestParseReactionUnknownReagent(t *testing.T) {
	vars := sirRegistry(t)
	_, err := ParseReaction("R1 + R2 => 2 P1", vars)
	if err == nil {
		t.Fatal("expected a resolution failure")
	}
	var unres *UnresolvedSymbolError
	if !errors.As(err, &unres) {
		t.Fatalf("expected UnresolvedSymbolError, got %T: %v", err, err)
	}
	if unres.Name != "R1" {
		t.Errorf("expected the first unknown reagent R1, got %q", unres.Name)
	}
	if !strings.Contains(err.Error(), "Unable to find reagent 'R1' inside the list of variables") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestParseReactionMalformed(t *testing.T) {
	vars := sirRegistry(t)
	for _, eq := range []string{"x_s x_i", "x_s => x_i => x_r", "x_s + => x_i"} {
		_, err := ParseReaction(eq, vars)
		if !errors.Is(err, ErrMalformedReaction) {
			t.Errorf("%q: expected ErrMalformedReaction, got %v", eq, err)
		}
	}
}

func TestReactionCollectionOrderAndMatrix(t *testing.T) {
	vars := sirRegistry(t)
	coll, err := NewReactionCollection([]string{
		"x_s => x_i",
		"x_s + x_i => x_r",
		"3x_s + x_i => x_r",
	}, vars)
	if err != nil {
		t.Fatal(err)
	}

	want := [][]int{
		{-1, 1, 0},
		{-1, -1, 1},
		{-3, -1, 1},
	}
	if got := coll.UpdateMatrix(); !reflect.DeepEqual(got, want) {
		t.Errorf("update matrix %v, want %v", got, want)
	}
	for i := 0; i < coll.Len(); i++ {
		if !reflect.DeepEqual(coll.At(i).UpdateVector(), want[i]) {
			t.Errorf("reaction %d out of declaration order", i)
		}
	}
}

func TestReactionCollectionAbortsOnFirstFailure(t *testing.T) {
	vars := sirRegistry(t)
	_, err := NewReactionCollection([]string{"x_s => x_i", "x_s => x_q"}, vars)
	var unres *UnresolvedSymbolError
	if !errors.As(err, &unres) {
		t.Fatalf("expected UnresolvedSymbolError, got %v", err)
	}
	if unres.Name != "x_q" {
		t.Errorf("expected x_q, got %q", unres.Name)
	}
}

func TestUpdateVectorIsACopy(t *testing.T) {
	vars := sirRegistry(t)
	r, err := ParseReaction("x_s => x_i", vars)
	if err != nil {
		t.Fatal(err)
	}
	v := r.UpdateVector()
	v[0] = 99
	if got := r.UpdateVector()[0]; got != -1 {
		t.Errorf("reaction mutated through a returned vector: %d", got)
	}
}
