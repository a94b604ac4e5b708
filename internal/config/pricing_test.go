package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPricingDefaultsFallbackWhenFileMissing(t *testing.T) {
	holder, err := newPricingDefaultsHolder(false, t.TempDir())
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}

	got := holder.Get()
	if got != DefaultPricing() {
		t.Fatalf("expected built-in defaults, got %+v", got)
	}
}

func TestPricingDefaultsFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("pricing:\n  hourlyRate: 40\n  dailyRate: 150\n  monthlyRate: 1200\n  dailyRateHoursThreshold: 6\n")
	if err := os.WriteFile(filepath.Join(dir, "pricing.yml"), content, 0o600); err != nil {
		t.Fatalf("write pricing.yml: %v", err)
	}

	holder, err := newPricingDefaultsHolder(false, dir)
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}

	got := holder.Get()
	want := PricingDefaults{HourlyRate: 40, DailyRate: 150, MonthlyRate: 1200, DailyRateHoursThreshold: 6}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestPricingDefaultsRejectInvalidFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("pricing:\n  hourlyRate: 0\n")
	if err := os.WriteFile(filepath.Join(dir, "pricing.yml"), content, 0o600); err != nil {
		t.Fatalf("write pricing.yml: %v", err)
	}

	if _, err := newPricingDefaultsHolder(false, dir); err == nil {
		t.Fatalf("expected validation error for non-positive hourly rate")
	}
}

func TestNilHolderReturnsBuiltInDefaults(t *testing.T) {
	var holder *PricingDefaultsHolder
	if holder.Get() != DefaultPricing() {
		t.Fatalf("expected built-in defaults from nil holder")
	}
}

func TestLoadSurchargeMode(t *testing.T) {
	t.Setenv("PRICING_SURCHARGE_MODE", "FULL")
	if got := Load().Parking.SurchargeMode; got != SurchargeModeFull {
		t.Fatalf("expected full surcharge mode, got %q", got)
	}

	t.Setenv("PRICING_SURCHARGE_MODE", "something-else")
	if got := Load().Parking.SurchargeMode; got != SurchargeModeExcess {
		t.Fatalf("expected excess surcharge mode, got %q", got)
	}
}
