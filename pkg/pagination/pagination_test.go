package pagination

import "testing"

func TestNormalizeLimit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "zero falls back to default", limit: 0, want: DefaultLimit},
		{name: "negative falls back to default", limit: -3, want: DefaultLimit},
		{name: "within range passes through", limit: 40, want: 40},
		{name: "over max is capped", limit: 500, want: MaxLimit},
	}

	for _, tc := range cases {
		if got := NormalizeLimit(tc.limit); got != tc.want {
			t.Errorf("%s: got %d want %d", tc.name, got, tc.want)
		}
	}
}

func TestHasMore(t *testing.T) {
	t.Parallel()

	params := Params{Limit: 25, Offset: 0}
	if !HasMore(26, params) {
		t.Fatal("expected more pages when total exceeds window")
	}
	if HasMore(25, params) {
		t.Fatal("expected no more pages when window covers total")
	}
	if HasMore(10, Params{Limit: 25, Offset: 25}) {
		t.Fatal("expected no more pages past the end")
	}
}
