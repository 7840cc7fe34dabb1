package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.Kind
		data    any
		wantErr bool
	}{
		{"nil is always valid", domain.KindDate, nil, false},
		{"plain takes anything", domain.KindPlain, map[string]any{"x": 1}, false},
		{"wrapper takes anything", domain.KindWrapper, 42, false},
		{"date", domain.KindDate, "2026-05-01", false},
		{"date wrong layout", domain.KindDate, "01/05/2026", true},
		{"date wrong type", domain.KindDate, 20260501, true},
		{"time", domain.KindTime, "09:30", false},
		{"time out of range", domain.KindTime, "25:00", true},
		{"datetime", domain.KindDatetime, "2026-05-01T09:30:00Z", false},
		{"number int", domain.KindNumber, 3, false},
		{"number float", domain.KindNumber, 0.5, false},
		{"number string", domain.KindNumber, "3", true},
		{"yes no", domain.KindYesNo, true, false},
		{"yes no string", domain.KindYesNo, "yes", true},
		{"typed list", domain.KindList, []domain.ListItem{{Name: "apple", Quantity: 2}}, false},
		{"generic list", domain.KindList, []any{map[string]any{"name": "apple", "quantity": 2.0}}, false},
		{"list missing name", domain.KindList, []domain.ListItem{{Quantity: 2}}, true},
		{"list negative quantity", domain.KindList, []domain.ListItem{{Name: "apple", Quantity: -1}}, true},
		{"list fractional quantity", domain.KindList, []any{map[string]any{"name": "apple", "quantity": 1.5}}, true},
		{"list of strings", domain.KindList, []string{"apple"}, true},
		{"list not a slice", domain.KindList, "apple", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.kind, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidPayload) {
				t.Errorf("expected ErrInvalidPayload, got %v", err)
			}
		})
	}
}

func TestValidateSnapshot(t *testing.T) {
	snap := &domain.Snapshot{
		DialogueName: "fruitseller",
		Resources: map[string]*domain.Resource{
			"Fruits": {Name: "Fruits", Kind: domain.KindList, Data: "apples"},
			"Date":   {Name: "Date", Kind: domain.KindDate, Data: "2026-05-01"},
			"Time":   {Name: "Time", Kind: domain.KindTime, Data: "noon"},
			"Final":  {Name: "Final", Kind: domain.KindFinal},
		},
	}

	err := ValidateSnapshot(snap)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	errs := ValidationErrors(err)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), err)
	}
	if !strings.Contains(errs[0].Error(), `"Fruits"`) || !strings.Contains(errs[1].Error(), `"Time"`) {
		t.Errorf("errors not in resource order: %v", errs)
	}
	if !errors.Is(err, domain.ErrInvalidPayload) {
		t.Error("aggregate should match ErrInvalidPayload")
	}

	if err := ValidateSnapshot(nil); err != nil {
		t.Errorf("nil snapshot: %v", err)
	}
	if errs := ValidationErrors(errors.New("plain")); errs != nil {
		t.Errorf("ValidationErrors(plain) = %v", errs)
	}
}

func TestCustom(t *testing.T) {
	even := Custom("even", func(v any) error {
		if n, ok := v.(int); !ok || n%2 != 0 {
			return errors.New("expected an even int")
		}
		return nil
	})
	if even.Name() != "even" {
		t.Errorf("Name() = %q", even.Name())
	}
	if err := even.Validate(4); err != nil {
		t.Errorf("Validate(4) = %v", err)
	}
	if err := even.Validate(3); err == nil {
		t.Error("Validate(3) should fail")
	}
}
