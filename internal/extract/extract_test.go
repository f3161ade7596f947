package extract

import (
	"reflect"
	"testing"
)

func TestAddresses(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"no address", "GET /index.html HTTP/1.1 200", nil},
		{"no dots at all", "hello world", nil},
		{"duplicates preserved", "10.0.0.1 requested 10.0.0.1 again", []string{"10.0.0.1", "10.0.0.1"}},
		{"left to right", `5.6.7.8 - - [10/Oct/2000:13:55:36 -0700] "GET / HTTP/1.0" 200 "1.2.3.4"`, []string{"5.6.7.8", "1.2.3.4"}},
		{"malformed octets accepted", "999.888.777.666 GET /", []string{"999.888.777.666"}},
		{"version string is not an address", "HTTP/1.1 Mozilla/5.0", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Addresses(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Addresses(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestAddressMethod(t *testing.T) {
	tests := []struct {
		line       string
		wantAddr   string
		wantMethod string
		wantOK     bool
	}{
		{"1.2.3.4 GET /index.html 200", "1.2.3.4", "GET", true},
		{"no address here", "", "", false},
		{"1.2.3.4 PATCH /x", "", "", false},
		{"1.2.3.4  GET /double-space", "", "", false},
		{"x 9.9.9.9 - then 1.2.3.4 DELETE /a and 5.5.5.5 PUT", "1.2.3.4", "DELETE", true},
		{"10.0.0.1 POST /login", "10.0.0.1", "POST", true},
	}

	for _, tt := range tests {
		addr, method, ok := AddressMethod(tt.line)
		if addr != tt.wantAddr || method != tt.wantMethod || ok != tt.wantOK {
			t.Errorf("AddressMethod(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.line, addr, method, ok, tt.wantAddr, tt.wantMethod, tt.wantOK)
		}
	}
}

func TestFacts(t *testing.T) {
	addrs, addr, method := Facts("1.1.1.1 GET /home 200")
	if !reflect.DeepEqual(addrs, []string{"1.1.1.1"}) || addr != "1.1.1.1" || method != "GET" {
		t.Errorf("Facts = (%v, %q, %q)", addrs, addr, method)
	}

	addrs, addr, method = Facts("nothing to see")
	if addrs != nil || addr != "" || method != "" {
		t.Errorf("Facts on empty line = (%v, %q, %q), want zero values", addrs, addr, method)
	}
}
