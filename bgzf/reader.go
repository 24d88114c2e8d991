// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"bytes"
	"io"
)

// Reader provides stateless, random-access reading of a BGZF stream
// addressed through an io.ReaderAt. Using ReaderAt rather than
// io.ReadSeeker lets Reader read any block directly, the same way
// golang.org/x/exp/mmap.ReaderAt lets fai.File address any byte of a
// FASTA file without holding a seek cursor (see fai/file.go in the
// teacher package) — a Reader has no notion of "current position" of
// its own; every read is addressed by an explicit file or virtual
// offset, so a single Reader may be used concurrently by independent
// callers as long as each supplies its own offsets.
//
// A Reader holds no exclusive lock on its source; per the concurrency
// model, a single logical task (an iterator, a fetch) must still own
// its Reader's use for the duration of that task.
type Reader struct {
	src io.ReaderAt
}

// Open validates that src begins with a BGZF header and returns a
// Reader over it. It does not read beyond the first header.
func Open(src io.ReaderAt) (*Reader, error) {
	var hdr [headerSize]byte
	n, err := src.ReadAt(hdr[:], 0)
	if n < headerSize {
		if err != nil && err != io.EOF {
			return nil, err
		}
		return nil, ErrNotBGZF
	}
	if !isHeader(hdr[:]) {
		return nil, ErrNotBGZF
	}
	return &Reader{src: src}, nil
}

// readRawBlockAt decodes the block starting at file offset blockStart,
// returning its decompressed payload and its total size on disk
// (header + compressed data + trailer).
func (r *Reader) readRawBlockAt(blockStart int64) (payload []byte, blockSize int, err error) {
	var hdr [headerSize]byte
	n, err := r.src.ReadAt(hdr[:], blockStart)
	if n < headerSize {
		if err != nil && err != io.EOF {
			return nil, 0, err
		}
		return nil, 0, ErrTruncated
	}
	if !isHeader(hdr[:]) {
		return nil, 0, ErrBadBlock
	}
	total := int(bsize(hdr[:])) + 1
	if total < headerSize+trailerSize {
		return nil, 0, ErrBadBlock
	}
	rest := make([]byte, total-headerSize)
	n, err = r.src.ReadAt(rest, blockStart+headerSize)
	if n < len(rest) {
		if err != nil && err != io.EOF {
			return nil, 0, err
		}
		return nil, 0, ErrTruncated
	}
	payload, blockSize, err = decodeBlock(hdr[:], rest)
	if err != nil {
		return nil, 0, err
	}
	return payload, blockSize, nil
}

// ReadBlockAt decompresses the single block at file offset blockStart
// and returns the file offset immediately following that block's
// header together with its decompressed payload.
func (r *Reader) ReadBlockAt(blockStart int64) (headerEnd int64, payload []byte, err error) {
	payload, _, err = r.readRawBlockAt(blockStart)
	if err != nil {
		return 0, nil, err
	}
	return blockStart + headerSize, payload, nil
}

// ReadRange returns the concatenation of decompressed bytes addressed
// by the half-open virtual offset range [start, end). It reads the
// block at start.File, slicing from start.Block; reads every
// subsequent whole block up to and including the block at end.File,
// taking only a prefix of that final block; it never reads the block
// that follows end's block.
func (r *Reader) ReadRange(start, end Offset) ([]byte, error) {
	if end.Virtual() < start.Virtual() {
		return nil, nil
	}

	var out []byte
	blockStart := start.File
	for {
		payload, blockSize, err := r.readRawBlockAt(blockStart)
		if err != nil {
			return nil, err
		}

		lo := 0
		if blockStart == start.File {
			lo = int(start.Block)
		}
		hi := len(payload)
		last := blockStart == end.File
		if last {
			hi = int(end.Block)
		}
		if lo > len(payload) {
			lo = len(payload)
		}
		if hi > len(payload) {
			hi = len(payload)
		}
		if hi > lo {
			out = append(out, payload[lo:hi]...)
		}

		if last {
			return out, nil
		}
		blockStart += int64(blockSize)
	}
}

// ReadAll decompresses and concatenates every block from the start of
// the stream to the terminal EOF marker. Unlike the line-oriented
// iterators, it returns the raw decompressed bytes unmodified, so it
// is the correct way to recover a stream that is not newline-delimited
// text, such as a Tabix index.
func (r *Reader) ReadAll() ([]byte, error) {
	var out []byte
	blockStart := int64(0)
	for {
		payload, blockSize, err := r.readRawBlockAt(blockStart)
		if err != nil {
			return nil, err
		}
		if len(payload) == 0 {
			return out, nil
		}
		out = append(out, payload...)
		blockStart += int64(blockSize)
	}
}

// Line is one complete, newline-stripped line read from a BGZF stream,
// together with the virtual offset of its first byte and the virtual
// offset immediately after its terminating '\n' (or, for a final line
// with no trailing newline, immediately after its last byte).
type Line struct {
	Bytes []byte
	Start Offset
	End   Offset
}

// LineIter is a forward-only, non-restartable iterator over the
// complete lines of a BGZF stream. Lines that straddle a block
// boundary are joined transparently. Dropping a LineIter releases its
// Reader without further I/O, since LineIter performs no I/O beyond
// the block it is currently holding.
type LineIter struct {
	r *Reader

	blockStart     int64
	payload        []byte
	pos            int
	nextBlockStart int64
	eof            bool
	err            error

	pending         []byte
	pendingStart    Offset
	pendingEndBlock int64
	pendingEndOff   uint16

	hasPeekLimit bool
	peekLimit    int64
	overshot     bool

	cur Line
}

// Lines returns an iterator over every line in the stream, starting
// from the first block.
func (r *Reader) Lines() *LineIter {
	return &LineIter{r: r, nextBlockStart: 0}
}

// Next advances the iterator and reports whether a line is available.
func (it *LineIter) Next() bool {
	if it.err != nil {
		return false
	}
	for {
		if it.pos < len(it.payload) {
			idx := bytes.IndexByte(it.payload[it.pos:], '\n')
			if idx < 0 {
				if len(it.pending) == 0 {
					it.pendingStart = Offset{File: it.blockStart, Block: uint16(it.pos)}
				}
				it.pending = append(it.pending, it.payload[it.pos:]...)
				it.pendingEndBlock = it.blockStart
				it.pendingEndOff = uint16(len(it.payload))
				it.pos = len(it.payload)
				continue
			}

			lineEnd := it.pos + idx
			var line []byte
			var start Offset
			if len(it.pending) > 0 {
				line = append(it.pending, it.payload[it.pos:lineEnd]...)
				start = it.pendingStart
				it.pending = nil
			} else {
				line = it.payload[it.pos:lineEnd]
				start = Offset{File: it.blockStart, Block: uint16(it.pos)}
			}
			end := Offset{File: it.blockStart, Block: uint16(lineEnd + 1)}
			it.pos = lineEnd + 1
			it.cur = Line{Bytes: line, Start: start, End: end}
			return true
		}

		if it.eof {
			if len(it.pending) > 0 {
				it.cur = Line{
					Bytes: it.pending,
					Start: it.pendingStart,
					End:   Offset{File: it.pendingEndBlock, Block: it.pendingEndOff},
				}
				it.pending = nil
				return true
			}
			return false
		}

		if it.overshot {
			return false
		}

		payload, blockSize, err := it.r.readRawBlockAt(it.nextBlockStart)
		if err != nil {
			it.err = err
			return false
		}
		if len(payload) == 0 {
			it.eof = true
			continue
		}
		it.blockStart = it.nextBlockStart
		it.payload = payload
		it.pos = 0
		it.nextBlockStart += int64(blockSize)
		if it.hasPeekLimit && it.blockStart > it.peekLimit {
			it.overshot = true
		}
	}
}

// Line returns the line most recently produced by Next.
func (it *LineIter) Line() Line { return it.cur }

// Err returns the first error encountered, if any.
func (it *LineIter) Err() error { return it.err }

// ScanLinesInByteRange scans forward for the first complete BGZF block
// starting at or after begin, then yields every line up to and
// including one block past end — the "simpler" peek-ahead policy
// used by parallel workers to complete a line straddling the end of
// their assigned byte range. If begin is not 0, the first (partial)
// line fragment of the first scanned block is discarded, since it
// belongs to the chunk owner preceding this range.
func (r *Reader) ScanLinesInByteRange(begin, end int64) (*LineIter, error) {
	offset, _, err := scanForHeader(&readAtReader{ra: r.src, pos: begin})
	if err != nil {
		return nil, err
	}
	blockStart := begin + offset

	it := &LineIter{r: r, nextBlockStart: blockStart, hasPeekLimit: true, peekLimit: end}
	if begin != 0 {
		// Discard the first line fragment: it belongs to the
		// previous range owner.
		it.Next()
	}
	return it, nil
}

// readAtReader adapts an io.ReaderAt, read sequentially from a fixed
// starting position, into an io.Reader for use by scanForHeader.
type readAtReader struct {
	ra  io.ReaderAt
	pos int64
}

func (r *readAtReader) Read(p []byte) (int, error) {
	n, err := r.ra.ReadAt(p, r.pos)
	r.pos += int64(n)
	return n, err
}
