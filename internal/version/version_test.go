package version

import "testing"

func TestNormalizeTrailingZeros(t *testing.T) {
	a, err := Parse("1.2.0.0")
	if err != nil {
		t.Fatalf("Parse(1.2.0.0): %v", err)
	}
	b, err := Parse("1.2")
	if err != nil {
		t.Fatalf("Parse(1.2): %v", err)
	}
	if !a.Equal(b) {
		t.Fatalf("expected 1.2.0.0 to normalize equal to 1.2, got %s vs %s", a, b)
	}
	if a.String() != b.String() {
		t.Fatalf("expected identical normalized strings, got %q vs %q", a.String(), b.String())
	}
}

func TestCompareRightPadded(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.2", "1.2.0", 0},
		{"1.1", "1.0", 1},
		{"1.0", "1.1", -1},
		{"2.0", "1.9.9", 1},
		{"1.2.3", "1.2.3", 0},
	}
	for _, c := range cases {
		va := MustParse(c.a)
		vb := MustParse(c.b)
		if got := va.Compare(vb); got != c.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestMax(t *testing.T) {
	a := MustParse("1.0")
	b := MustParse("1.1")
	if got := Max(a, b); !got.Equal(b) {
		t.Fatalf("Max(1.0, 1.1) = %s, want 1.1", got)
	}
}
