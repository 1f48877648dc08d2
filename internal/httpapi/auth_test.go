package httpapi

import (
	"testing"
	"time"

	"butcherdesk/backend/internal/domain"
)

func testAccounts(t *testing.T) []ButcherAccount {
	t.Helper()
	hash, err := HashSecret("meat-secret")
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	return []ButcherAccount{
		{
			Butcher:    domain.Butcher{ID: "butcher-meat-01", Name: "Hillside Meats", Vendor: domain.VendorWeightBased},
			SecretHash: hash,
		},
	}
}

func TestLoginAndParseToken(t *testing.T) {
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, testAccounts(t))

	resp, err := auth.Login(LoginRequest{ButcherID: "butcher-meat-01", Secret: "meat-secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Vendor != "meat" {
		t.Fatalf("vendor = %q", resp.Vendor)
	}

	butcher, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if butcher.ID != "butcher-meat-01" || butcher.Vendor != domain.VendorWeightBased {
		t.Fatalf("unexpected identity: %+v", butcher)
	}
	if butcher.Name != "Hillside Meats" {
		t.Fatalf("name not carried in claims: %q", butcher.Name)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, testAccounts(t))

	if _, err := auth.Login(LoginRequest{ButcherID: "butcher-meat-01", Secret: "wrong"}); err == nil {
		t.Fatal("wrong secret must fail")
	}
	if _, err := auth.Login(LoginRequest{ButcherID: "nobody", Secret: "meat-secret"}); err == nil {
		t.Fatal("unknown butcher must fail")
	}
}

func TestParseTokenRejectsForgery(t *testing.T) {
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, testAccounts(t))
	other := NewAuthManager("another-secret-another-secret-xx", time.Hour, testAccounts(t))

	resp, err := other.Login(LoginRequest{ButcherID: "butcher-meat-01", Secret: "meat-secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := auth.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("token signed with a different secret must be rejected")
	}
	if _, err := auth.ParseToken("not-a-token"); err == nil {
		t.Fatal("garbage token must be rejected")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Nanosecond, testAccounts(t))

	resp, err := auth.Login(LoginRequest{ButcherID: "butcher-meat-01", Secret: "meat-secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := auth.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("expired token must be rejected")
	}
}
