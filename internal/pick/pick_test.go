package pick

import "testing"

func TestOne_Empty(t *testing.T) {
	if _, ok := One[string](Fixed(0), nil); ok {
		t.Error("One() on empty slice should report false")
	}
}

func TestOne_Fixed(t *testing.T) {
	items := []string{"a", "b", "c"}

	tests := []struct {
		idx  Fixed
		want string
	}{
		{idx: 0, want: "a"},
		{idx: 2, want: "c"},
		{idx: 9, want: "c"},
		{idx: -1, want: "a"},
	}

	for _, tt := range tests {
		got, ok := One(tt.idx, items)
		if !ok || got != tt.want {
			t.Errorf("One(Fixed(%d)) = (%q, %v), want %q", tt.idx, got, ok, tt.want)
		}
	}
}

func TestSeeded_Reproducible(t *testing.T) {
	a := NewSeeded(42)
	b := NewSeeded(42)

	for i := 0; i < 20; i++ {
		x, y := a.Intn(100), b.Intn(100)
		if x != y {
			t.Fatalf("draw %d: %d != %d", i, x, y)
		}
		if x < 0 || x >= 100 {
			t.Fatalf("draw %d out of range: %d", i, x)
		}
	}
}

func TestOne_NilSourceUsesDefault(t *testing.T) {
	got, ok := One(nil, []int{7})
	if !ok || got != 7 {
		t.Errorf("One(nil) = (%d, %v), want 7", got, ok)
	}
}
