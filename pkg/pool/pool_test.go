// Unit tests for object pools
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pool

import "testing"

// TestArgsMapRoundTrip tests that a returned map comes back empty.
func TestArgsMapRoundTrip(t *testing.T) {
	m := GetArgsMap()
	m["F"] = "50"
	m["A"] = "2500"
	PutArgsMap(m)

	m2 := GetArgsMap()
	defer PutArgsMap(m2)
	if len(m2) != 0 {
		t.Errorf("pooled map not cleared, has %d entries", len(m2))
	}
}

// TestPutArgsMapNil tests the nil guard.
func TestPutArgsMapNil(t *testing.T) {
	PutArgsMap(nil) // must not panic
}

// TestStringSliceRoundTrip tests that a returned slice comes back
// empty with its contents released.
func TestStringSliceRoundTrip(t *testing.T) {
	s := GetStringSlice()
	*s = append(*s, "M958", "X1", "F50")
	PutStringSlice(s)

	s2 := GetStringSlice()
	defer PutStringSlice(s2)
	if len(*s2) != 0 {
		t.Errorf("pooled slice not reset, has %d entries", len(*s2))
	}
}

// TestPutStringSliceOversized tests that oversized slices are not
// pooled and nil is tolerated.
func TestPutStringSliceOversized(t *testing.T) {
	big := make([]string, 0, 512)
	PutStringSlice(&big)
	PutStringSlice(nil)
}
