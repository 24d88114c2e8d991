// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabix

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/sanogenetics/puretabix/bgzf"
)

var tbiMagic = [4]byte{'T', 'B', 'I', 0x1}

// ReadFrom deserializes an Index from the bit-exact Tabix binary
// layout: little-endian throughout, magic "TBI\x01" followed by the
// header, per-sequence bin lists, and per-sequence linear index.
func ReadFrom(r io.Reader) (*Index, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadIndex, err)
	}
	if magic != tbiMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadIndex)
	}

	var header struct {
		NRef, Format, ColSeq, ColBeg, ColEnd, Meta, Skip, LNm int32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrBadIndex, err)
	}
	if header.Format != FormatGeneric && header.Format != FormatSAM && header.Format != FormatVCF {
		return nil, fmt.Errorf("%w: invalid file_format %d", ErrBadIndex, header.Format)
	}
	if header.NRef < 0 || header.LNm < 0 {
		return nil, fmt.Errorf("%w: negative count in header", ErrBadIndex)
	}

	nameBuf := make([]byte, header.LNm)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return nil, fmt.Errorf("%w: names: %v", ErrBadIndex, err)
	}
	names := splitNUL(nameBuf)
	if int32(len(names)) != header.NRef {
		return nil, fmt.Errorf("%w: n_ref=%d but %d names", ErrBadIndex, header.NRef, len(names))
	}

	idx := New(header.Format, header.ColSeq, header.ColBeg, header.ColEnd, byte(header.Meta), header.Skip)
	idx.names = names

	for _, name := range names {
		if _, dup := idx.seqs[name]; dup {
			return nil, fmt.Errorf("%w: duplicate sequence name %q", ErrBadIndex, name)
		}
		seq := &sequenceIndex{bins: make(map[uint32][]Chunk)}
		idx.seqs[name] = seq

		var nBin int32
		if err := binary.Read(r, binary.LittleEndian, &nBin); err != nil {
			return nil, fmt.Errorf("%w: n_bin: %v", ErrBadIndex, err)
		}
		for i := int32(0); i < nBin; i++ {
			var binID uint32
			var nChunk int32
			if err := binary.Read(r, binary.LittleEndian, &binID); err != nil {
				return nil, fmt.Errorf("%w: bin id: %v", ErrBadIndex, err)
			}
			if err := binary.Read(r, binary.LittleEndian, &nChunk); err != nil {
				return nil, fmt.Errorf("%w: n_chunk: %v", ErrBadIndex, err)
			}
			chunks := make([]Chunk, nChunk)
			for j := int32(0); j < nChunk; j++ {
				var begin, end uint64
				if err := binary.Read(r, binary.LittleEndian, &begin); err != nil {
					return nil, fmt.Errorf("%w: chunk begin: %v", ErrBadIndex, err)
				}
				if err := binary.Read(r, binary.LittleEndian, &end); err != nil {
					return nil, fmt.Errorf("%w: chunk end: %v", ErrBadIndex, err)
				}
				chunks[j] = Chunk{Begin: bgzf.OffsetFromVirtual(begin), End: bgzf.OffsetFromVirtual(end)}
			}
			seq.bins[binID] = chunks
		}

		var nIntv int32
		if err := binary.Read(r, binary.LittleEndian, &nIntv); err != nil {
			return nil, fmt.Errorf("%w: n_intv: %v", ErrBadIndex, err)
		}
		linear := make([]uint64, nIntv)
		if nIntv > 0 {
			if err := binary.Read(r, binary.LittleEndian, &linear); err != nil {
				return nil, fmt.Errorf("%w: linear: %v", ErrBadIndex, err)
			}
		}
		seq.linear = linear
	}

	return idx, nil
}

// WriteTo serializes idx in the bit-exact Tabix binary layout. Bins
// within a sequence are emitted sorted ascending by id, per the fix
// to the reference implementation's dictionary-insertion-order
// output, so repeated runs produce byte-identical files.
func (idx *Index) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.Write(tbiMagic[:])

	var nameBuf bytes.Buffer
	for _, name := range idx.names {
		nameBuf.WriteString(name)
		nameBuf.WriteByte(0)
	}

	header := struct {
		NRef, Format, ColSeq, ColBeg, ColEnd, Meta, Skip, LNm int32
	}{
		NRef:     int32(len(idx.names)),
		Format:   idx.Format,
		ColSeq:   idx.ColSeq,
		ColBeg:   idx.ColBegin,
		ColEnd:   idx.ColEnd,
		Meta:     int32(idx.Meta),
		Skip:     idx.SkipLines,
		LNm:      int32(nameBuf.Len()),
	}
	if err := binary.Write(&buf, binary.LittleEndian, &header); err != nil {
		return 0, err
	}
	buf.Write(nameBuf.Bytes())

	for _, name := range idx.names {
		seq := idx.seqs[name]

		binIDs := make([]uint32, 0, len(seq.bins))
		for id := range seq.bins {
			binIDs = append(binIDs, id)
		}
		sort.Slice(binIDs, func(i, j int) bool { return binIDs[i] < binIDs[j] })

		if err := binary.Write(&buf, binary.LittleEndian, int32(len(binIDs))); err != nil {
			return 0, err
		}
		for _, id := range binIDs {
			chunks := seq.bins[id]
			if err := binary.Write(&buf, binary.LittleEndian, id); err != nil {
				return 0, err
			}
			if err := binary.Write(&buf, binary.LittleEndian, int32(len(chunks))); err != nil {
				return 0, err
			}
			for _, c := range chunks {
				if err := binary.Write(&buf, binary.LittleEndian, c.Begin.Virtual()); err != nil {
					return 0, err
				}
				if err := binary.Write(&buf, binary.LittleEndian, c.End.Virtual()); err != nil {
					return 0, err
				}
			}
		}

		if err := binary.Write(&buf, binary.LittleEndian, int32(len(seq.linear))); err != nil {
			return 0, err
		}
		if len(seq.linear) > 0 {
			if err := binary.Write(&buf, binary.LittleEndian, seq.linear); err != nil {
				return 0, err
			}
		}
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// splitNUL splits a run of NUL-terminated strings into a slice,
// dropping the final (empty) segment produced by the trailing NUL.
func splitNUL(b []byte) []string {
	var names []string
	start := 0
	for i, c := range b {
		if c == 0 {
			names = append(names, string(b[start:i]))
			start = i + 1
		}
	}
	return names
}
