package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWhatsAppSendDisabled(t *testing.T) {
	db := newTestDB(t)
	svc := NewWhatsAppService(db)

	err := svc.Send("081234567890", "test")
	if err == nil || err.Error() != "config_not_found" {
		t.Fatalf("err = %v, want config_not_found", err)
	}
}

func TestWhatsAppSendHitsGateway(t *testing.T) {
	db := newTestDB(t)
	cfgSvc := NewSystemConfigService(db)
	cfgSvc.Set("wa_enabled", "true")
	cfgSvc.Set("wa_api_key", "test-key-123")

	var gotAuth, gotPath string
	var gotBody waSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewWhatsAppService(db)
	svc.baseURL = srv.URL

	if err := svc.Send("081234567890", "SPM Anda menunggu verifikasi"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotPath != "/send" {
		t.Fatalf("path = %q, want /send", gotPath)
	}
	if gotAuth != "test-key-123" {
		t.Fatalf("Authorization = %q, want the configured key", gotAuth)
	}
	if gotBody.Target != "6281234567890" {
		t.Fatalf("target = %q, want normalized 6281234567890", gotBody.Target)
	}
	if gotBody.CountryCode != "62" {
		t.Fatalf("countryCode = %q, want 62", gotBody.CountryCode)
	}
	if gotBody.Message != "SPM Anda menunggu verifikasi" {
		t.Fatalf("message = %q", gotBody.Message)
	}
}

func TestWhatsAppSendGatewayError(t *testing.T) {
	db := newTestDB(t)
	cfgSvc := NewSystemConfigService(db)
	cfgSvc.Set("wa_enabled", "true")
	cfgSvc.Set("wa_api_key", "test-key-123")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	svc := NewWhatsAppService(db)
	svc.baseURL = srv.URL

	if err := svc.Send("081234567890", "test"); err == nil {
		t.Fatal("Send succeeded despite a gateway error")
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"081234567890", "6281234567890"},
		{"6281234567890", "6281234567890"},
		{"+6281234567890", "6281234567890"},
		{"0812-3456-7890", "6281234567890"},
		{"0812 3456 7890", "6281234567890"},
	}
	for _, tt := range tests {
		if got := normalizePhone(tt.in, "62"); got != tt.want {
			t.Errorf("normalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
