package ipallow

import "testing"

func TestEmptyListAllowsEverything(t *testing.T) {
	al := New(nil)
	for _, ip := range []string{"1.2.3.4", "2001:db8::1", "garbage", ""} {
		if !al.Allowed(ip) {
			t.Fatalf("lista vacía rechazó %q", ip)
		}
	}
}

func TestExactMatch(t *testing.T) {
	al := New([]string{"192.168.1.10", "2001:db8::5"})

	cases := []struct {
		ip   string
		want bool
	}{
		{"192.168.1.10", true},
		{"192.168.1.11", false},
		{"2001:db8::5", true},
		{"2001:db8::6", false},
		{"::ffff:192.168.1.10", true}, // v4-mapped
	}
	for _, c := range cases {
		if got := al.Allowed(c.ip); got != c.want {
			t.Fatalf("Allowed(%q) = %v, want %v", c.ip, got, c.want)
		}
	}
}

func TestCIDRMatch(t *testing.T) {
	al := New([]string{"10.0.0.0/8", "2001:db8::/32"})

	cases := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"10.255.255.255", true},
		{"11.0.0.1", false},
		{"2001:db8:ffff::1", true},
		{"2001:db9::1", false},
	}
	for _, c := range cases {
		if got := al.Allowed(c.ip); got != c.want {
			t.Fatalf("Allowed(%q) = %v, want %v", c.ip, got, c.want)
		}
	}
}

func TestUnparseableClientIPDenied(t *testing.T) {
	al := New([]string{"10.0.0.0/8"})
	for _, ip := range []string{"", "not-an-ip", "10.0.0"} {
		if al.Allowed(ip) {
			t.Fatalf("IP no parseable %q pasó con lista no vacía", ip)
		}
	}
}
