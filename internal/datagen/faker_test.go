//-------------------------------------------------------------------------
//
// Trade Ingest
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"testing"
)

func TestNewFaker(t *testing.T) {
	f := NewFaker()
	if f == nil {
		t.Fatal("NewFaker returned nil")
	}
	if f.faker == nil {
		t.Fatal("faker field is nil")
	}
}

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Int(10, 20)
		if v < 10 || v > 20 {
			t.Errorf("Int(10, 20) returned %d, out of range", v)
		}
	}
}

func TestFakerFloat64(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Float64(1.0, 2.0)
		if v < 1.0 || v > 2.0 {
			t.Errorf("Float64(1.0, 2.0) returned %f, out of range", v)
		}
	}
}

func TestFakerDecimal(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Decimal(50, 3500, 4)
		if v.Exponent() < -4 {
			t.Errorf("Decimal returned %s with more than 4 places", v)
		}
		if v.IntPart() < 50 || v.IntPart() > 3500 {
			t.Errorf("Decimal returned %s, out of range", v)
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFaker()
	items := []string{"a", "b", "c"}

	for i := 0; i < 100; i++ {
		v := Choose(f, items)
		found := false
		for _, item := range items {
			if v == item {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Choose returned %s, not in items", v)
		}
	}
}

func TestChooseEmpty(t *testing.T) {
	f := NewFaker()
	var items []string
	v := Choose(f, items)
	if v != "" {
		t.Errorf("Choose with empty slice should return zero value, got %s", v)
	}
}

func TestChooseCoversAllItems(t *testing.T) {
	f := NewFakerWithSeed(7)
	items := []int32{1, 5, 10, 50, 100, 200}
	seen := make(map[int32]bool)

	for i := 0; i < 1000; i++ {
		seen[Choose(f, items)] = true
	}
	if len(seen) != len(items) {
		t.Errorf("Expected all %d items to be chosen, saw %d", len(items), len(seen))
	}
}
