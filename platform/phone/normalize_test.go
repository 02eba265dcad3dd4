package phone

import "testing"

func TestNormalizeDomesticNumbersShareOneKey(t *testing.T) {
	n := NewNormalizer("CN")

	inputs := []string{
		"13900000001",
		" 139 0000 0001 ",
		"139-0000-0001",
		"+86 139 0000 0001",
		"+8613900000001",
	}
	for _, input := range inputs {
		if got := n.Normalize(input); got != "13900000001" {
			t.Fatalf("Normalize(%q) = %q, want %q", input, got, "13900000001")
		}
	}
}

func TestNormalizeKeepsUnparseableInputTrimmed(t *testing.T) {
	n := NewNormalizer("")

	if got := n.Normalize("  abc  "); got != "abc" {
		t.Fatalf("expected trimmed passthrough, got %q", got)
	}
	if got := n.Normalize("   "); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
