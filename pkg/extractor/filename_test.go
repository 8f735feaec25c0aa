package extractor

import "testing"

func TestDeriveFilename(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"48:55", "48_55.svg"},
		{"12:171", "12_171.svg"},
		{"I100:5;20:3", "I100_5;20_3.svg"}, // instance ids carry multiple colons
		{"plain", "plain.svg"},
	}

	for _, tt := range tests {
		if got := DeriveFilename(tt.id); got != tt.want {
			t.Errorf("DeriveFilename(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestSanitizeIDIdempotent(t *testing.T) {
	once := SanitizeID("11933:305884")
	twice := SanitizeID(once)
	if once != twice {
		t.Errorf("SanitizeID not idempotent: %q vs %q", once, twice)
	}
	if once != "11933_305884" {
		t.Errorf("SanitizeID = %q, want 11933_305884", once)
	}
}

func TestDeriveFilenameDistinctIDs(t *testing.T) {
	// Distinct node ids in one file never collide: sanitization only
	// touches colons and ids differ in digits.
	ids := []string{"1:2", "1:3", "10:2", "100:20"}
	seen := map[string]string{}
	for _, id := range ids {
		name := DeriveFilename(id)
		if prev, ok := seen[name]; ok {
			t.Errorf("ids %q and %q collide on %q", prev, id, name)
		}
		seen[name] = id
	}
}
