// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabix

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/sanogenetics/puretabix/bgzf"
	"github.com/sanogenetics/puretabix/internal/bin"
)

// buildState is the per-sequence scratch the builder uses while
// constructing the linear index: touched distinguishes a window that
// has never been visited from one whose minimum virtual offset
// happens to be the zero value, the distinction the reference
// implementation's lookup failed to make (see Index.Lookup).
type buildState struct {
	touched []bool
	linear  []uint64
}

// BuildFrom constructs a complete Index for file_format=VCF
// (col_seq=1, col_beg=2, col_end=0, meta='#', skip=0) from r, a BGZF
// stream holding a VCF sorted by (order of first appearance of each
// chromosome, pos ascending). It makes a single pass over r's lines.
//
// If r ends prematurely (a truncated final block), BuildFrom returns
// the index built from everything read so far, forward-filled and
// internally consistent, alongside the error that ended the scan.
func BuildFrom(r *bgzf.Reader) (*Index, error) {
	idx := New(FormatVCF, 1, 2, 0, '#', 0)
	states := make(map[string]*buildState)

	it := r.Lines()
	for it.Next() {
		ln := it.Line()
		if len(ln.Bytes) == 0 || ln.Bytes[0] == '#' {
			continue
		}

		chrom, pos, ref, ok := splitChromPosRef(ln.Bytes)
		if !ok {
			finishBuild(idx, states)
			return idx, fmt.Errorf("tabix: malformed data line: %q", ln.Bytes)
		}

		seq, exists := idx.seqs[chrom]
		if !exists {
			seq = &sequenceIndex{bins: make(map[uint32][]Chunk)}
			idx.seqs[chrom] = seq
			idx.names = append(idx.names, chrom)
		}
		st, hasState := states[chrom]
		if !hasState {
			st = &buildState{}
			states[chrom] = st
		}

		recordStart := pos - 1
		recordEnd := recordStart
		if len(ref) > 0 {
			recordEnd = recordStart + uint32(len(ref)) - 1
		}

		b := bin.For(recordStart, recordEnd)
		addChunk(seq, b, ln.Start, ln.End)

		winBegin := bin.WindowIndex(recordStart)
		winEnd := bin.WindowIndex(recordEnd)
		extendLinear(st, winBegin, ln.Start.Virtual())
		if winEnd != winBegin {
			extendLinear(st, winEnd, ln.Start.Virtual())
		}
	}

	iterErr := it.Err()
	finishBuild(idx, states)
	return idx, iterErr
}

// addChunk appends [begin, end) to bin's chunk list, merging with the
// preceding chunk when it ends exactly where this one begins.
func addChunk(seq *sequenceIndex, b uint32, begin, end bgzf.Offset) {
	chunks := seq.bins[b]
	if n := len(chunks); n > 0 && chunks[n-1].End.Virtual() == begin.Virtual() {
		chunks[n-1].End = end
	} else {
		chunks = append(chunks, Chunk{Begin: begin, End: end})
	}
	seq.bins[b] = chunks
}

// extendLinear grows st's scratch arrays to cover window w, then sets
// linear[w] to the minimum of its current value and candidate — an
// untouched slot counts as +Inf, per the design note on the source's
// UNSET-vs-0 ambiguity.
func extendLinear(st *buildState, w int, candidate uint64) {
	for len(st.touched) <= w {
		st.touched = append(st.touched, false)
		st.linear = append(st.linear, 0)
	}
	if !st.touched[w] || candidate < st.linear[w] {
		st.linear[w] = candidate
		st.touched[w] = true
	}
}

// finishBuild forward-fills every sequence's linear scratch array and
// installs it on idx. Windows before the first touched window are
// left at their zero value: a linear_min of 0 there is conservative
// (it never excludes a chunk), not incorrect.
func finishBuild(idx *Index, states map[string]*buildState) {
	for name, st := range states {
		var last uint64
		haveLast := false
		for w := range st.linear {
			if st.touched[w] {
				last = st.linear[w]
				haveLast = true
			} else if haveLast {
				st.linear[w] = last
			}
		}
		idx.seqs[name].linear = st.linear
	}
}

// splitChromPosRef extracts the CHROM, POS and REF columns without
// running the full VCF parser: the builder only needs these three
// fields to place a record in the binning index.
func splitChromPosRef(line []byte) (chrom string, pos uint32, ref string, ok bool) {
	parts := bytes.SplitN(line, []byte("\t"), 5)
	if len(parts) < 4 {
		return "", 0, "", false
	}
	p, err := strconv.ParseUint(string(parts[1]), 10, 32)
	if err != nil {
		return "", 0, "", false
	}
	return string(parts[0]), uint32(p), string(parts[3]), true
}
