package pricing

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://Example.com:443/Pricing/", "https://example.com/pricing", false},
		{"http://example.com:80/pricing#plans", "http://example.com/pricing", false},
		{"https://example.com/pricing?x=1", "https://example.com/pricing?x=1", false},
		{"https://example.com", "https://example.com/", false},
		{"not-a-url", "", true},
		{"", "", true},
	}

	for _, c := range cases {
		got, err := Canonicalize(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("Canonicalize(%q): expected error, got %q", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Canonicalize(%q): unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCanonicalizeEquivalentForms(t *testing.T) {
	raw1 := "https://Example.com/Pricing/"
	raw2 := "https://example.com:443/Pricing"
	c1, err := Canonicalize(raw1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c2, err := Canonicalize(raw2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c1 != c2 {
		t.Errorf("expected identical canonical forms, got %q and %q", c1, c2)
	}
}
