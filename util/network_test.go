package util

import "testing"

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		input   string
		want    Endpoint
		wantErr bool
	}{
		{"collector:8086", Endpoint{Host: "collector", Port: 8086, Target: "/"}, false},
		{"127.0.0.1:80", Endpoint{Host: "127.0.0.1", Port: 80, Target: "/"}, false},
		{"[::1]:443", Endpoint{Host: "::1", Port: 443, Target: "/"}, false},
		{"http://collector", Endpoint{Host: "collector", Port: 80, Target: "/"}, false},
		{"https://collector", Endpoint{Host: "collector", Port: 443, TLS: true, Target: "/"}, false},
		{"https://collector:8443/write?db=x", Endpoint{Host: "collector", Port: 8443, TLS: true, Target: "/write?db=x"}, false},
		{"HTTP://collector:81/api", Endpoint{Host: "collector", Port: 81, Target: "/api"}, false},
		{"", Endpoint{}, true},
		{"collector", Endpoint{}, true},
		{"collector:0", Endpoint{}, true},
		{"collector:99999", Endpoint{}, true},
		{":80", Endpoint{}, true},
		{"ftp://collector", Endpoint{}, true},
		{"https://:443", Endpoint{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEndpoint(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEndpoint(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEndpoint_Addr(t *testing.T) {
	if got := (Endpoint{Host: "::1", Port: 443}).Addr(); got != "[::1]:443" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestFormatAddr(t *testing.T) {
	if got := FormatAddr("example.com", 80); got != "example.com:80" {
		t.Errorf("FormatAddr() = %q", got)
	}
}

func TestFindFreePort(t *testing.T) {
	port, err := FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	if port < 1 || port > 65535 {
		t.Errorf("port %d out of range", port)
	}
}
