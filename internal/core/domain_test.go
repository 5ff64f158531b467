package core

import (
	"math"
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	catID := int64(3)
	valid := Transaction{
		OwnerID:    1,
		Time:       time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC),
		Amount:     42.50,
		CategoryID: &catID,
	}

	tests := []struct {
		name    string
		mutate  func(tx *Transaction)
		wantErr error
	}{
		{
			name:    "valid transaction",
			mutate:  func(tx *Transaction) {},
			wantErr: nil,
		},
		{
			name:    "missing owner",
			mutate:  func(tx *Transaction) { tx.OwnerID = 0 },
			wantErr: ErrMissingOwner,
		},
		{
			name:    "zero time",
			mutate:  func(tx *Transaction) { tx.Time = time.Time{} },
			wantErr: ErrMissingTime,
		},
		{
			name:    "NaN amount",
			mutate:  func(tx *Transaction) { tx.Amount = math.NaN() },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "infinite amount",
			mutate:  func(tx *Transaction) { tx.Amount = math.Inf(1) },
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount is allowed",
			mutate:  func(tx *Transaction) { tx.Amount = -10.25 },
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			if err := tx.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{ID: 1, Name: "Food"}).Validate(); err != nil {
		t.Errorf("valid category: %v", err)
	}
	if err := (Category{ID: 1, Name: "  "}).Validate(); err != ErrEmptyName {
		t.Errorf("blank name: got %v, want %v", err, ErrEmptyName)
	}
	self := int64(1)
	if err := (Category{ID: 1, Name: "Loop", ParentID: &self}).Validate(); err == nil {
		t.Error("self-parent category should not validate")
	}
}

func TestLocationHasCoordinates(t *testing.T) {
	lat, lon := 39.9042, 116.4074
	if (Location{Text: "somewhere"}).HasCoordinates() {
		t.Error("text-only location should not have coordinates")
	}
	if (Location{Lat: &lat}).HasCoordinates() {
		t.Error("latitude alone is not a coordinate pair")
	}
	if !(Location{Lat: &lat, Lon: &lon}).HasCoordinates() {
		t.Error("full coordinate pair not detected")
	}
}

func TestDay(t *testing.T) {
	ts := time.Date(2024, 5, 17, 23, 59, 59, 0, time.UTC)
	got := Day(ts)
	want := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day(%v) = %v, want %v", ts, got, want)
	}
}
