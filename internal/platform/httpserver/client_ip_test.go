package httpserver

import (
	"log/slog"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	server := &Server{proxies: parseTrustedProxies([]string{"10.0.0.0/8", "192.168.1.10", "bogus"}, slog.Default())}
	if len(server.proxies) != 2 {
		t.Fatalf("expected invalid entry to be skipped, got %v", server.proxies)
	}

	tests := []struct {
		name      string
		remote    string
		forwarded []string
		want      string
	}{
		{name: "direct peer ignores header", remote: "203.0.113.5:4000", forwarded: []string{"198.51.100.1"}, want: "203.0.113.5"},
		{name: "trusted proxy", remote: "10.1.2.3:4000", forwarded: []string{"198.51.100.1"}, want: "198.51.100.1"},
		{name: "spoofed left entry", remote: "10.1.2.3:4000", forwarded: []string{"1.1.1.1, 198.51.100.1"}, want: "198.51.100.1"},
		{name: "proxy chain", remote: "10.1.2.3:4000", forwarded: []string{"198.51.100.1, 192.168.1.10"}, want: "198.51.100.1"},
		{name: "repeated header", remote: "10.1.2.3:4000", forwarded: []string{"1.1.1.1", "198.51.100.2"}, want: "198.51.100.2"},
		{name: "trusted proxy without header", remote: "10.1.2.3:4000", want: "10.1.2.3"},
		{name: "garbage hop", remote: "10.1.2.3:4000", forwarded: []string{"not-an-ip"}, want: "10.1.2.3"},
		{name: "ipv6 peer", remote: "[2001:db8::1]:4000", forwarded: []string{"198.51.100.1"}, want: "2001:db8::1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remote
			for _, value := range tc.forwarded {
				req.Header.Add("X-Forwarded-For", value)
			}
			if got := server.clientIP(req); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
