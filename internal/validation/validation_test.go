package validation

import (
	"strings"
	"testing"
)

func TestIsValidTopic(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"orders", true},
		{"orders-updates", true},
		{"news_2024.q1~beta%20", true},
		{"", false},
		{"orders updates", false},
		{"/topics/orders", false},
		{"café", false},
		{strings.Repeat("a", 900), true},
		{strings.Repeat("a", 901), false},
	}

	for _, c := range cases {
		if got := IsValidTopic(c.in); got != c.want {
			t.Fatalf("IsValidTopic(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNormalizeIPEntry(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"192.168.1.10", "192.168.1.10"},
		{" 192.168.1.10 ", "192.168.1.10"},
		{"10.0.0.0/8", "10.0.0.0/8"},
		{"10.0.0.5/8", "10.0.0.0/8"}, // host bits se normalizan
		{"2001:db8::1", "2001:db8::1"},
		{"2001:db8::/32", "2001:db8::/32"},
		{"", ""},
		{"not-an-ip", ""},
		{"10.0.0.0/33", ""},
		{"300.1.1.1", ""},
	}

	for _, c := range cases {
		if got := NormalizeIPEntry(c.in); got != c.want {
			t.Fatalf("NormalizeIPEntry(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
