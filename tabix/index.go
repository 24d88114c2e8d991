// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tabix implements the Tabix binning index: an in-memory
// representation of a .tbi file, its bit-exact binary serialization,
// and a single-pass builder that constructs one from a coordinate-
// sorted, BGZF-compressed VCF.
package tabix

import (
	"errors"

	"github.com/sanogenetics/puretabix/bgzf"
	"github.com/sanogenetics/puretabix/internal/bin"
)

// File format codes, per the Tabix on-disk header.
const (
	FormatGeneric = 0
	FormatSAM     = 1
	FormatVCF     = 2
)

// ErrBadIndex reports a malformed Tabix index: bad magic, an invalid
// file_format, a duplicate sequence name, or an n_ref/name-list
// mismatch.
var ErrBadIndex = errors.New("tabix: bad index")

// Chunk is a half-open range of virtual offsets holding one or more
// records assigned to a single bin.
type Chunk struct {
	Begin, End bgzf.Offset
}

// sequenceIndex is the per-sequence bin map and linear index.
type sequenceIndex struct {
	bins   map[uint32][]Chunk
	linear []uint64 // virtual offsets, one per 16KiB window, forward-filled
}

// Index is an in-memory Tabix index: a per-sequence hierarchical bin
// index plus a 16KiB linear index, with the column/format metadata a
// .tbi header carries.
//
// An Index returned by ReadFrom or BuildFrom is treated as immutable
// by callers; BuildFrom mutates it only during construction.
type Index struct {
	Format        int32
	ColSeq        int32
	ColBegin      int32
	ColEnd        int32
	Meta          byte
	SkipLines     int32

	names []string
	seqs  map[string]*sequenceIndex
}

// New returns an empty Index with the given header metadata.
func New(format, colSeq, colBegin, colEnd int32, meta byte, skipLines int32) *Index {
	return &Index{
		Format:    format,
		ColSeq:    colSeq,
		ColBegin:  colBegin,
		ColEnd:    colEnd,
		Meta:      meta,
		SkipLines: skipLines,
		seqs:      make(map[string]*sequenceIndex),
	}
}

// NumRefs returns the number of sequences the index covers.
func (idx *Index) NumRefs() int { return len(idx.names) }

// Names returns the sequence names in their on-disk declaration order.
func (idx *Index) Names() []string {
	out := make([]string, len(idx.names))
	copy(out, idx.names)
	return out
}

func (idx *Index) sequence(name string) (*sequenceIndex, bool) {
	s, ok := idx.seqs[name]
	return s, ok
}

// Lookup implements lookup_virtual: it returns a virtual offset range
// [start, end) that is guaranteed to contain every record of sequence
// name overlapping the closed interval [begin, end]; start is clamped
// down to the linear index entry, so the range may also cover earlier
// records. ok is false when name is unknown, the query starts beyond
// any window the index recorded for that sequence, or no chunk in an
// overlapping bin survives the linear-index check — callers should
// treat that the same as "no records", not as an error.
func (idx *Index) Lookup(name string, begin, end uint32) (start, stop bgzf.Offset, ok bool) {
	seq, found := idx.sequence(name)
	if !found {
		return bgzf.Offset{}, bgzf.Offset{}, false
	}
	w := bin.WindowIndex(begin)
	if w >= len(seq.linear) {
		return bgzf.Offset{}, bgzf.Offset{}, false
	}
	// The reference implementation's lookup conflated an unset window
	// (sentinel 0) with a genuine record at virtual offset 0; we trust
	// the stored value unconditionally and rely solely on the bounds
	// check above to decide whether a window exists.
	linearMin := seq.linear[w]

	haveResult := false
	var vStart, vEnd uint64
	bins := bin.Overlapping(begin, end)
	for i := len(bins) - 1; i >= 0; i-- {
		for _, c := range seq.bins[bins[i]] {
			chunkBegin := c.Begin.Virtual()
			chunkEnd := c.End.Virtual()
			if chunkEnd <= linearMin {
				continue
			}
			// Clamp the chunk start down to where the linear index says
			// this region actually begins.
			if chunkBegin > linearMin {
				chunkBegin = linearMin
			}
			if !haveResult || chunkBegin < vStart {
				vStart = chunkBegin
			}
			if !haveResult || chunkEnd > vEnd {
				vEnd = chunkEnd
			}
			haveResult = true
		}
	}
	if !haveResult {
		return bgzf.Offset{}, bgzf.Offset{}, false
	}
	return bgzf.OffsetFromVirtual(vStart), bgzf.OffsetFromVirtual(vEnd), true
}

// SequenceSpan returns the virtual-offset span covering every chunk
// recorded for sequence name, with no positional filtering — the Go
// equivalent of the reference implementation's whole-sequence lookup
// (a query with begin and end both absent).
func (idx *Index) SequenceSpan(name string) (start, stop bgzf.Offset, ok bool) {
	seq, found := idx.sequence(name)
	if !found {
		return bgzf.Offset{}, bgzf.Offset{}, false
	}
	haveResult := false
	var vStart, vEnd uint64
	for _, chunks := range seq.bins {
		for _, c := range chunks {
			b, e := c.Begin.Virtual(), c.End.Virtual()
			if !haveResult || b < vStart {
				vStart = b
			}
			if !haveResult || e > vEnd {
				vEnd = e
			}
			haveResult = true
		}
	}
	if !haveResult {
		return bgzf.Offset{}, bgzf.Offset{}, false
	}
	return bgzf.OffsetFromVirtual(vStart), bgzf.OffsetFromVirtual(vEnd), true
}
