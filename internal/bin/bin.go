// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bin implements the UCSC-style hierarchical binning scheme
// shared by the Tabix binning index: pure integer arithmetic over
// 0-based genomic coordinates, with no I/O or allocation beyond the
// slice returned by Overlapping.
package bin

// Shift and offset constants for the five above-root levels, finest
// first. Level L covers 2^(14+3*(5-L)) bases; offset is the bin id of
// the first bin at that level (((1<<(3*L))-1)/7).
const (
	shift5, offset5 = 14, 4681 // 16 KiB bins
	shift4, offset4 = 17, 585  // 128 KiB bins
	shift3, offset3 = 20, 73   // 1 MiB bins
	shift2, offset2 = 23, 9    // 8 MiB bins
	shift1, offset1 = 26, 1    // 64 MiB bins
	// Bin 0 is the root, covering the whole genome (512 MiB and up).
	Root = 0
)

// For returns the id of the smallest bin fully containing the 0-based,
// closed interval [begin, end] (end is the last included position,
// not one past it).
func For(begin, end uint32) uint32 {
	switch {
	case begin>>shift5 == end>>shift5:
		return offset5 + begin>>shift5
	case begin>>shift4 == end>>shift4:
		return offset4 + begin>>shift4
	case begin>>shift3 == end>>shift3:
		return offset3 + begin>>shift3
	case begin>>shift2 == end>>shift2:
		return offset2 + begin>>shift2
	case begin>>shift1 == end>>shift1:
		return offset1 + begin>>shift1
	default:
		return Root
	}
}

// Overlapping returns every bin id, across all six levels, whose
// genomic region intersects the 0-based, closed interval
// [begin, end]. The result is ordered root-first, finest-level-last:
// iterate it in reverse to visit the finest (most specific) bins
// first, which lets a lookup stop early once the linear index has
// ruled out a region.
func Overlapping(begin, end uint32) []uint32 {
	bins := make([]uint32, 0, 1+8+8+8+8+8)
	bins = append(bins, Root)
	for _, lvl := range [5]struct{ shift, offset uint32 }{
		{shift1, offset1},
		{shift2, offset2},
		{shift3, offset3},
		{shift4, offset4},
		{shift5, offset5},
	} {
		lo := lvl.offset + begin>>lvl.shift
		hi := lvl.offset + end>>lvl.shift
		for b := lo; b <= hi; b++ {
			bins = append(bins, b)
		}
	}
	return bins
}

// Window is the size, in bytes, of one linear-index tile.
const Window = 0x4000 // 16384

// WindowIndex returns the linear-index slot that position pos falls
// into.
func WindowIndex(pos uint32) int {
	return int(pos / Window)
}
