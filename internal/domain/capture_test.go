package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNeedsCapture(t *testing.T) {
	policy := DefaultCapturePolicy()

	cases := []struct {
		name string
		item OrderItem
		want bool
	}{
		{"plain weight item", OrderItem{Name: "Chicken Leg", Category: "chicken"}, true},
		{"exempt category", OrderItem{Name: "Farm Eggs 6pc", Category: "eggs"}, false},
		{"exempt category ready to cook", OrderItem{Name: "Seekh Kebab", Category: "ready to cook"}, false},
		{"pattern overrides exemption", OrderItem{Name: "Chicken Curry Cut", Category: "ready to cook"}, true},
		{"biryani cut pattern", OrderItem{Name: "Mutton Biryani Cut", Category: "eggs"}, true},
		{"no category", OrderItem{Name: "Mackerel"}, true},
	}
	for _, c := range cases {
		if got := policy.NeedsCapture(c.item); got != c.want {
			t.Errorf("%s: NeedsCapture = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestValidateAmountNos(t *testing.T) {
	policy := DefaultCapturePolicy()
	item := OrderItem{Name: "Mackerel", Unit: UnitNos}

	if err := policy.ValidateAmount(item, "20"); err != nil {
		t.Fatalf("ceiling value must pass, got %v", err)
	}
	var oor *OutOfRangeError
	if err := policy.ValidateAmount(item, "21"); !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError above ceiling, got %v", err)
	} else if oor.Ceiling != 20 {
		t.Fatalf("expected ceiling 20 in error, got %g", oor.Ceiling)
	}
	if err := policy.ValidateAmount(item, "2.5"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("fractional piece count must fail, got %v", err)
	}
	if err := policy.ValidateAmount(item, "0"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero count must fail, got %v", err)
	}
	if err := policy.ValidateAmount(item, ""); !errors.Is(err, ErrMissingAmount) {
		t.Fatalf("empty amount must fail, got %v", err)
	}
}

func TestValidateAmountKg(t *testing.T) {
	policy := DefaultCapturePolicy()
	item := OrderItem{Name: "Chicken Leg", Unit: UnitKg}

	if err := policy.ValidateAmount(item, "10.0"); err != nil {
		t.Fatalf("ceiling value must pass, got %v", err)
	}
	if err := policy.ValidateAmount(item, "1.8"); err != nil {
		t.Fatalf("valid weight must pass, got %v", err)
	}
	var oor *OutOfRangeError
	if err := policy.ValidateAmount(item, "10.01"); !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError above ceiling, got %v", err)
	}
	if err := policy.ValidateAmount(item, "-1.2"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative weight must fail, got %v", err)
	}
	if err := policy.ValidateAmount(item, "abc"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("non-numeric weight must fail, got %v", err)
	}
}

func TestOrderCloneIsDeep(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	order := &Order{
		ID:                   "2026-09-01/3",
		Items:                []OrderItem{{Name: "Chicken Leg", Quantity: "2"}},
		Status:               StatusPreparing,
		PreparationStartTime: &now,
		ItemWeights:          map[string]string{"Chicken Leg": "1.8"},
	}

	clone := order.Clone()
	clone.Items[0].Rejected = "out of stock"
	clone.ItemWeights["Chicken Leg"] = "9.9"
	*clone.PreparationStartTime = now.Add(time.Hour)

	if order.Items[0].Rejected != "" {
		t.Fatal("clone items alias the original slice")
	}
	if order.ItemWeights["Chicken Leg"] != "1.8" {
		t.Fatal("clone weights alias the original map")
	}
	if !order.PreparationStartTime.Equal(now) {
		t.Fatal("clone times alias the original pointer")
	}
}

func TestRevenueKey(t *testing.T) {
	if got := RevenueKey("Chicken Curry Cut", "small"); got != "Chicken Curry Cut_small" {
		t.Fatalf("sized key = %q", got)
	}
	if got := RevenueKey("Chicken Leg", ""); got != "Chicken Leg_default" {
		t.Fatalf("default key = %q", got)
	}
}
