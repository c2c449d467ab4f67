package cache

import "testing"

type interval struct{ begin, end int }

func (iv interval) Supports(probe int) bool {
	return iv.begin <= probe && probe < iv.end
}

// Scenario 4: support-based lookup, single-threaded.
func TestGetSupporting_SingleThreaded(t *testing.T) {
	t.Parallel()

	c := New[interval, string](Options[interval, string]{})
	{ h := c.InsertOrGet(interval{0, 10}, "Good"); h.Release() }
	{ h := c.InsertOrGet(interval{10, 20}, "Bad"); h.Release() }

	cases := []struct {
		probe int
		want  string
		null  bool
	}{
		{probe: 0, want: "Good"},
		{probe: 9, want: "Good"},
		{probe: 10, want: "Bad"},
		{probe: 19, want: "Bad"},
		{probe: 20, null: true},
	}

	for _, tc := range cases {
		h, err := GetSupporting[int](c, tc.probe)
		if err != nil {
			t.Fatalf("probe %d: unexpected error %v", tc.probe, err)
		}
		if tc.null {
			if h.Valid() {
				t.Fatalf("probe %d: want null handle, got valid", tc.probe)
			}
			continue
		}
		v, err := h.Value()
		h.Release()
		if err != nil || v != tc.want {
			t.Fatalf("probe %d: want %q, got %q (err=%v)", tc.probe, tc.want, v, err)
		}
	}
}

func TestGetSupporting_AmbiguousMatch(t *testing.T) {
	t.Parallel()

	c := New[interval, string](Options[interval, string]{})
	{ h := c.InsertOrGet(interval{0, 10}, "Good"); h.Release() }
	{ h := c.InsertOrGet(interval{5, 15}, "Overlapping"); h.Release() }

	h, err := GetSupporting[int](c, 7)
	if h.Valid() {
		t.Fatal("expected null handle on ambiguous match")
	}
	if !IsAmbiguousSupport(err) {
		t.Fatalf("want AmbiguousSupport, got %v", err)
	}
	if n, ok := AmbiguousSupportMatches(err); !ok || n != 2 {
		t.Fatalf("want 2 matches recorded, got %d (ok=%v)", n, ok)
	}
}

func TestGetSupporting_ZeroMatches(t *testing.T) {
	t.Parallel()

	c := New[interval, string](Options[interval, string]{})
	{ h := c.InsertOrGet(interval{0, 10}, "Good"); h.Release() }

	h, err := GetSupporting[int](c, 50)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if h.Valid() {
		t.Fatal("expected null handle for unsupported probe")
	}
}
