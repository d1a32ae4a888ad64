package core

import (
	"reflect"
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID("exp")
	if !strings.HasPrefix(id, "exp_") {
		t.Fatalf("id %q missing prefix", id)
	}
	body := strings.TrimPrefix(id, "exp_")
	if len(body) < 8 {
		t.Errorf("id body %q too short", body)
	}
	for _, r := range body {
		if !strings.ContainsRune(base36, r) {
			t.Errorf("id %q contains non base-36 rune %q", id, r)
		}
	}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		next := GenerateID("exp")
		if seen[next] {
			t.Fatalf("duplicate id %q", next)
		}
		seen[next] = true
	}
}

func TestGenerateIDNoPrefix(t *testing.T) {
	if id := GenerateID(""); strings.Contains(id, "_") {
		t.Errorf("unprefixed id %q should have no underscore", id)
	}
}

func TestParseTags(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"coffee", []string{"coffee"}},
		{"Coffee, WORK , ", []string{"coffee", "work"}},
		{",,,", nil},
	}
	for _, tc := range cases {
		if got := ParseTags(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseTags(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Coffee", "WORK", "", "  "})
	if !reflect.DeepEqual(got, []string{"coffee", "work"}) {
		t.Errorf("NormalizeTags = %v", got)
	}
	if NormalizeTags(nil) != nil {
		t.Error("nil input should stay nil")
	}
}
