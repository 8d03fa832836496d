package suggest

import "testing"

func TestClosest(t *testing.T) {
	candidates := []string{"flipper", "store", "erc20"}
	cases := []struct {
		name string
		want string
	}{
		{"flipper", "flipper"},
		{"fliper", "flipper"},
		{"stor", "store"},
		{"erc21", "erc20"},
		{"zzzzzzzzzz", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Closest(tc.name, candidates); got != tc.want {
			t.Errorf("Closest(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
	if got := Closest("x", nil); got != "" {
		t.Errorf("expected no suggestion, got %q", got)
	}
}
