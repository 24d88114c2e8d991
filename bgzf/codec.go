// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"hash/crc32"
	"io"
)

// decodeBlock decompresses a single BGZF block given its 18-byte header
// and the immediately following compressed-data-plus-trailer bytes. It
// returns the decompressed payload and the total size of the block
// (header + compressed data + trailer) as advertised by BSIZE.
//
// It fails with ErrBadBlock when the CRC32 or ISIZE recorded in the
// trailer do not match the decompressed payload, or when the DEFLATE
// stream leaves unconsumed input or trailing garbage before the
// trailer.
func decodeBlock(header []byte, rest []byte) (payload []byte, blockSize int, err error) {
	if !isHeader(header) {
		return nil, 0, ErrNotBGZF
	}
	total := int(bsize(header)) + 1
	blockSize = total
	body := total - headerSize
	if len(rest) < body {
		return nil, 0, ErrTruncated
	}
	cdata := rest[:body-trailerSize]
	trailer := rest[body-trailerSize : body]

	br := bytes.NewReader(cdata)
	zr := flate.NewReader(br)
	defer zr.Close()
	payload, err = io.ReadAll(zr)
	if err != nil {
		return nil, 0, ErrBadBlock
	}

	// A valid BGZF block's compressed region is exactly the DEFLATE
	// stream; any bytes left unconsumed in cdata indicate a malformed
	// BSIZE or corrupt block.
	if br.Len() != 0 {
		return nil, 0, ErrBadBlock
	}

	crc := binary.LittleEndian.Uint32(trailer[0:4])
	isize := binary.LittleEndian.Uint32(trailer[4:8])
	if crc32.ChecksumIEEE(payload) != crc || uint32(len(payload)) != isize {
		return nil, 0, ErrBadBlock
	}

	return payload, blockSize, nil
}

// encodeBlock compresses content (at most BlockSize bytes) into a
// single BGZF block: header || deflate(content) || (crc32, isize). An
// empty content produces the canonical 28-byte EOF marker block.
func encodeBlock(content []byte) ([]byte, error) {
	if len(content) > BlockSize {
		return nil, ErrBlockOverflow
	}

	var cbuf bytes.Buffer
	zw, err := flate.NewWriter(&cbuf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(content); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	cdata := cbuf.Bytes()

	total := headerSize + len(cdata) + trailerSize
	if total > MaxBlockSize {
		return nil, ErrBlockOverflow
	}

	block := make([]byte, 0, total)
	header := [headerSize]byte{
		0: 0x1f, 1: 0x8b, 2: 0x08, 3: 0x04,
		// bytes[4:8] MTIME = 0
		8:  0,    // XFL
		9:  0xff, // OS, unspecified
		10: 6, 11: 0, // XLEN = 6 (one BC subfield)
	}
	copy(header[12:16], bgzfExtraPrefix)
	binary.LittleEndian.PutUint16(header[16:18], uint16(total-1))
	block = append(block, header[:]...)
	block = append(block, cdata...)

	var trailer [trailerSize]byte
	binary.LittleEndian.PutUint32(trailer[0:4], crc32.ChecksumIEEE(content))
	binary.LittleEndian.PutUint32(trailer[4:8], uint32(len(content)))
	block = append(block, trailer[:]...)

	return block, nil
}

// scanForHeader reads from r one byte at a time, maintaining a sliding
// headerSize-byte window, until a valid BGZF header is found. It
// returns the absolute offset of that header relative to the reader's
// starting position. It is used only by parallel workers that are
// handed an arbitrary byte range and must find the first complete
// block within it; the ordinary Reader never needs to scan since it
// always starts aligned to a block boundary.
func scanForHeader(r io.Reader) (offset int64, header [headerSize]byte, err error) {
	var window [headerSize]byte
	filled := 0
	var pos int64
	var b [1]byte
	for {
		n, err := r.Read(b[:])
		if n == 0 {
			if err != nil {
				return 0, window, err
			}
			continue
		}
		if filled < headerSize {
			window[filled] = b[0]
			filled++
		} else {
			copy(window[:headerSize-1], window[1:])
			window[headerSize-1] = b[0]
		}
		pos++
		if filled == headerSize && isHeader(window[:]) {
			return pos - headerSize, window, nil
		}
	}
}
