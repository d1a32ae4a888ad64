package security

import (
	"net/http/httptest"
	"testing"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		method     string
		suspicious bool
	}{
		{"clean api request", "/api/expenses?categoryId=cat_food", "GET", false},
		{"path traversal", "/api/../../etc/passwd", "GET", true},
		{"wordpress probe", "/wp-admin/setup.php", "GET", true},
		{"sql injection in query", "/api/expenses?search=union%20select%201", "GET", true},
		{"script tag in query", "/api/expenses?search=%3Cscript%3E", "GET", true},
		{"trace method", "/api/expenses", "TRACE", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if got := d.DetectSuspiciousRequest(r); got != tt.suspicious {
				t.Errorf("DetectSuspiciousRequest() = %v, want %v", got, tt.suspicious)
			}
			wantCount := int64(0)
			if tt.suspicious {
				wantCount = 1
			}
			if got := d.GetMetrics().SuspiciousRequests; got != wantCount {
				t.Errorf("metric = %d, want %d", got, wantCount)
			}
		})
	}
}

func TestExtractClientIPTrustsProxiesOnly(t *testing.T) {
	d := NewDetector()

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.5:4000"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.5")
	if got := d.ExtractClientIP(r); got != "203.0.113.9" {
		t.Errorf("behind trusted proxy: got %q", got)
	}

	// a public peer cannot spoof its address via headers
	r = httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "198.51.100.7:4000"
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	if got := d.ExtractClientIP(r); got != "198.51.100.7" {
		t.Errorf("untrusted peer: got %q", got)
	}
}

func TestExtractClientIPRealIPFallback(t *testing.T) {
	d := NewDetector()

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "127.0.0.1:4000"
	r.Header.Set("X-Real-IP", "203.0.113.9")
	if got := d.ExtractClientIP(r); got != "203.0.113.9" {
		t.Errorf("got %q", got)
	}
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	if err := d.AddTrustedProxy("100.64.0.0/10"); err != nil {
		t.Fatalf("AddTrustedProxy: %v", err)
	}
	if err := d.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Error("invalid CIDR should be rejected")
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "100.64.0.1:4000"
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	if got := d.ExtractClientIP(r); got != "203.0.113.9" {
		t.Errorf("got %q", got)
	}
}
