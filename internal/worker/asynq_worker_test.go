package worker

import (
	"strings"
	"testing"
)

func TestMaskRedeemURLEmpty(t *testing.T) {
	if got := maskRedeemURL(""); got != "" {
		t.Fatalf("expected empty result for empty url, got %q", got)
	}
	if got := maskRedeemURL("   "); got != "" {
		t.Fatalf("expected empty result for blank url, got %q", got)
	}
}

func TestMaskRedeemURLMasksToken(t *testing.T) {
	got := maskRedeemURL("https://cards.example.com/redeem?token=a1b2c3d4e5f6a7b8")
	if strings.Contains(got, "a1b2c3d4e5f6a7b8") {
		t.Fatalf("token plaintext leaked in masked url: %q", got)
	}
	if !strings.Contains(got, "token=a1b2c3%2A%2A%2A") && !strings.Contains(got, "token=a1b2c3***") {
		t.Fatalf("expected first six characters plus mask, got %q", got)
	}
}

func TestMaskRedeemURLShortToken(t *testing.T) {
	got := maskRedeemURL("https://cards.example.com/redeem?token=abc")
	if strings.Contains(got, "token=abc") {
		t.Fatalf("short token should be fully masked, got %q", got)
	}
}

func TestMaskRedeemURLWithoutToken(t *testing.T) {
	raw := "https://cards.example.com/redeem?ref=staff"
	if got := maskRedeemURL(raw); got != raw {
		t.Fatalf("url without token should be unchanged, want %q got %q", raw, got)
	}
}
