package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"  Come Together.pdf ": "Come Together.pdf",
		"AC/DC - Back.pdf":     "AC-DC - Back.pdf",
		"What?.pdf":            "What.pdf",
		"a:b*c.pdf":            "a-b-c.pdf",
		"":                     "",
	}
	for input, want := range cases {
		if got := SanitizeFileName(input); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestValidateRenameTarget(t *testing.T) {
	if got, err := ValidateRenameTarget("Help!.pdf"); err != nil || got != "Help!.pdf" {
		t.Fatalf("ValidateRenameTarget = %q, %v", got, err)
	}
	for _, bad := range []string{"", "  ", "..", "???"} {
		if _, err := ValidateRenameTarget(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
