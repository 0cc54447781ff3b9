package utils_test

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/samajhai/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"short", "hi", 1},
		{"excerpt", strings.Repeat("a", 4000), 1000},
		{"multibyte", strings.Repeat("ह", 8), 2},
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got != c.want {
			t.Errorf("%s: got %d want %d", c.name, got, c.want)
		}
	}
}

func TestTokenBreakdown(t *testing.T) {
	got := utils.TokenBreakdown(map[string]string{"instruction": "abcdefgh", "excerpt": ""})
	if got["instruction"] != 2 || got["excerpt"] != 0 {
		t.Fatalf("breakdown=%v", got)
	}
}
