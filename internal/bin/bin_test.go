// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bin

import "testing"

func TestForLevels(t *testing.T) {
	cases := []struct {
		begin, end uint32
		want       uint32
	}{
		{0, 0, offset5 + 0},
		{0, Window - 1, offset5 + 0},
		{0, Window, offset4 + 0},              // crosses a 16KiB boundary
		{0, 1<<17 - 1, offset4 + 0},            // still within one 128KiB bin
		{0, 1 << 26, Root},                           // spans a 64MiB boundary: root
		{1 << 26, 1<<26 + 1<<23, offset1 + 1}, // spans an 8MiB boundary but stays in one 64MiB bin
	}
	for _, c := range cases {
		got := For(c.begin, c.end)
		if got != c.want {
			t.Errorf("For(%d,%d) = %d, want %d", c.begin, c.end, got, c.want)
		}
	}
}

func TestOverlappingContainsFor(t *testing.T) {
	begin, end := uint32(1108137), uint32(1108140)
	want := For(begin, end)
	bins := Overlapping(begin, end)
	found := false
	for _, b := range bins {
		if b == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("Overlapping(%d,%d) = %v does not contain For() = %d", begin, end, bins, want)
	}
}

func TestOverlappingOrderRootFirstFinestLast(t *testing.T) {
	bins := Overlapping(0, 1<<27)
	if bins[0] != Root {
		t.Fatalf("first bin = %d, want Root", bins[0])
	}
	last := bins[len(bins)-1]
	if last < offset5 {
		t.Fatalf("last bin = %d, want a level-5 (finest) bin >= %d", last, offset5)
	}
}

func TestWindowIndex(t *testing.T) {
	if WindowIndex(0) != 0 {
		t.Fatalf("WindowIndex(0) = %d, want 0", WindowIndex(0))
	}
	if WindowIndex(Window) != 1 {
		t.Fatalf("WindowIndex(Window) = %d, want 1", WindowIndex(Window))
	}
	if WindowIndex(Window*3+5) != 3 {
		t.Fatalf("WindowIndex(Window*3+5) = %d, want 3", WindowIndex(Window*3+5))
	}
}
