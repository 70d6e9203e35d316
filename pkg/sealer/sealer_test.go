package sealer

import (
	"strings"
	"testing"
)

func TestOpaqueTokenRoundTrip(t *testing.T) {
	token, err := CreateOpaqueToken("64b0c8f2a1d2e3f405060708")
	if err != nil {
		t.Fatalf("CreateOpaqueToken() error = %v", err)
	}
	if strings.Contains(token, "64b0c8f2a1d2e3f405060708") {
		t.Error("token leaks the sealed value")
	}

	value, err := ParseOpaqueToken(token)
	if err != nil {
		t.Fatalf("ParseOpaqueToken() error = %v", err)
	}
	if value != "64b0c8f2a1d2e3f405060708" {
		t.Errorf("ParseOpaqueToken() = %q, want original value", value)
	}
}

func TestOpaqueTokensAreUnique(t *testing.T) {
	a, err := CreateOpaqueToken("same-value")
	if err != nil {
		t.Fatalf("CreateOpaqueToken() error = %v", err)
	}
	b, err := CreateOpaqueToken("same-value")
	if err != nil {
		t.Fatalf("CreateOpaqueToken() error = %v", err)
	}
	if a == b {
		t.Error("expected distinct tokens for the same value (random nonce)")
	}
}

func TestParseOpaqueTokenRejectsTampering(t *testing.T) {
	token, err := CreateOpaqueToken("64b0c8f2a1d2e3f405060708")
	if err != nil {
		t.Fatalf("CreateOpaqueToken() error = %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := ParseOpaqueToken(tampered); err == nil {
		t.Error("expected tampered token to be rejected")
	}
}

func TestParseOpaqueTokenRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "short", "!!!not-base64!!!"} {
		if _, err := ParseOpaqueToken(input); err == nil {
			t.Errorf("ParseOpaqueToken(%q) should fail", input)
		}
	}
}
