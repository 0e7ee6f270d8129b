package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CREDITS_GENERATE", "")
	t.Setenv("CREDITS_UNLOCK", "")
	t.Setenv("CREDITS_ENHANCE", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.CreditsGenerate != 3 || cfg.CreditsUnlock != 30 || cfg.CreditsEnhance != 10 {
		t.Fatalf("credit defaults mismatch: %d/%d/%d", cfg.CreditsGenerate, cfg.CreditsUnlock, cfg.CreditsEnhance)
	}
	if cfg.RefundEnhanceOnFail {
		t.Fatal("refund policy should default to off")
	}
	if cfg.PendingTransactionTTL != 24*time.Hour {
		t.Fatalf("PendingTransactionTTL mismatch: %v", cfg.PendingTransactionTTL)
	}
	if cfg.PredictModel != "google/nano-banana" {
		t.Fatalf("PredictModel mismatch: %q", cfg.PredictModel)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestLoadConfigRejectsNegativeCosts(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CREDITS_UNLOCK", "-1")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for negative unlock cost")
	}
}

func TestLoadConfigRefundPolicy(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("REFUND_ENHANCE_ON_FAILURE", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.RefundEnhanceOnFail {
		t.Fatal("expected refund policy enabled")
	}
}
