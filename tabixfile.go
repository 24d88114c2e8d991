// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package puretabix provides random-access reading of BGZF-compressed,
// Tabix-indexed VCF files: given a sequence name and a [begin, end]
// interval, it returns the decompressed bytes or the filtered record
// lines that may overlap it, without decompressing the whole file.
package puretabix

import (
	"bytes"

	"github.com/sanogenetics/puretabix/bgzf"
	"github.com/sanogenetics/puretabix/tabix"
)

// TabixIndexedFile is the glue between a TabixIndex and the BGZF bytes
// it describes: it turns a (name, begin, end) query into decompressed
// bytes, and optionally into filtered, column-validated record lines.
type TabixIndexedFile struct {
	r   *bgzf.Reader
	idx *tabix.Index
}

// Open pairs a BGZF-compressed data stream with its Tabix index. It
// performs no I/O beyond what bgzf.Open already does to validate the
// header.
func Open(src *bgzf.Reader, idx *tabix.Index) *TabixIndexedFile {
	return &TabixIndexedFile{r: src, idx: idx}
}

// FetchBytes returns the raw decompressed byte range covering every
// record of sequence name that may overlap [begin, end]. begin and end
// are given in the same 1-based units as the indexed column itself
// (VCF POS), matching the values a caller filters on in Fetch; they
// are converted to the index's 0-based bin coordinates internally. An
// unknown sequence name yields an empty, nil-error result.
func (f *TabixIndexedFile) FetchBytes(name string, begin, end uint32) ([]byte, error) {
	start, stop, ok := f.idx.Lookup(name, zeroBased(begin), zeroBased(end))
	if !ok {
		return nil, nil
	}
	return f.r.ReadRange(start, stop)
}

// zeroBased converts a 1-based column value to the 0-based coordinate
// the binning index was built against, saturating at 0.
func zeroBased(pos uint32) uint32 {
	if pos == 0 {
		return 0
	}
	return pos - 1
}

// Fetch returns the complete record lines of sequence name that may
// overlap [begin, end]: skip_lines header lines are dropped, lines
// beginning with the index's meta byte are dropped, lines with fewer
// columns than the index needs are dropped (a truncated line at a
// chunk boundary), and the remainder is filtered by column_begin and,
// when present, column_end against the query interval.
//
// Every returned line has its column_begin value within [begin, end]
// (and, when column_end is present, its column_end value no greater
// than end). Records that overlap the interval but begin before begin
// are not returned.
func (f *TabixIndexedFile) Fetch(name string, begin, end uint32) ([][]byte, error) {
	raw, err := f.FetchBytes(name, begin, end)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	minCols := f.idx.ColSeq
	if f.idx.ColBegin > minCols {
		minCols = f.idx.ColBegin
	}
	if f.idx.ColEnd > minCols {
		minCols = f.idx.ColEnd
	}

	var out [][]byte
	lines := bytes.Split(raw, []byte{'\n'})
	skipped := int32(0)
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		if skipped < f.idx.SkipLines {
			skipped++
			continue
		}
		if f.idx.Meta != 0 && line[0] == f.idx.Meta {
			continue
		}
		cols := bytes.Split(line, []byte{'\t'})
		if int32(len(cols)) < minCols {
			continue
		}
		colBegin, ok := parseColumn(cols, f.idx.ColBegin)
		if !ok || colBegin < begin {
			continue
		}
		if f.idx.ColEnd != 0 {
			colEnd, ok := parseColumn(cols, f.idx.ColEnd)
			if !ok || colEnd > end {
				continue
			}
		} else if colBegin > end {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

// parseColumn reads the 1-based column col from cols as a base-10
// unsigned integer.
func parseColumn(cols [][]byte, col int32) (uint32, bool) {
	if col <= 0 || int(col) > len(cols) {
		return 0, false
	}
	v, ok := parseUint32(cols[col-1])
	return v, ok
}

func parseUint32(b []byte) (uint32, bool) {
	var v uint32
	if len(b) == 0 {
		return 0, false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + uint32(c-'0')
	}
	return v, true
}

// FetchHeader returns every leading line of the underlying file up to
// and including the "#CHROM" column-header line: the VCF meta-info
// and comment lines a caller typically wants alongside any fetched
// records, but which Fetch itself deliberately excludes.
func (f *TabixIndexedFile) FetchHeader() ([][]byte, error) {
	it := f.r.Lines()
	var out [][]byte
	for it.Next() {
		ln := it.Line()
		out = append(out, ln.Bytes)
		if bytes.HasPrefix(ln.Bytes, []byte("#CHROM")) {
			break
		}
		if len(ln.Bytes) == 0 || ln.Bytes[0] != '#' {
			// reached the data section without a #CHROM line; the
			// preceding lines are still returned as the header.
			out = out[:len(out)-1]
			break
		}
	}
	if err := it.Err(); err != nil {
		return out, err
	}
	return out, nil
}
