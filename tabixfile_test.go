// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package puretabix

import (
	"bytes"
	"testing"

	"github.com/sanogenetics/puretabix/bgzf"
	"github.com/sanogenetics/puretabix/tabix"
)

type sliceReaderAt []byte

func (s sliceReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(s)) {
		return 0, errTestEOF
	}
	n := copy(p, s[off:])
	if n < len(p) {
		return n, errTestEOF
	}
	return n, nil
}

type testEOFErr struct{}

func (testEOFErr) Error() string { return "EOF" }

var errTestEOF = testEOFErr{}

func buildIndexedFile(t *testing.T, lines ...string) *TabixIndexedFile {
	t.Helper()
	var buf bytes.Buffer
	w := bgzf.NewWriter(&buf)
	for _, l := range lines {
		if _, err := w.Write([]byte(l + "\n")); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	r1, err := bgzf.Open(sliceReaderAt(data))
	if err != nil {
		t.Fatal(err)
	}
	idx, err := tabix.BuildFrom(r1)
	if err != nil {
		t.Fatal(err)
	}

	r2, err := bgzf.Open(sliceReaderAt(data))
	if err != nil {
		t.Fatal(err)
	}
	return Open(r2, idx)
}

func TestFetchExactPosition(t *testing.T) {
	f := buildIndexedFile(t,
		"##fileformat=VCFv4.1",
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
		"1\t1108138\trs61733845\tA\tG\t100\tPASS\tNS=1",
		"22\t200\trs2\tC\tT\t100\tPASS\tNS=1",
	)

	lines, err := f.Fetch("1", 1108138, 1108138)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || !bytes.Contains(lines[0], []byte("rs61733845")) {
		t.Fatalf("got %q, want exactly one line containing rs61733845", lines)
	}

	lines, err = f.Fetch("1", 1108128, 1108148)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || !bytes.Contains(lines[0], []byte("rs61733845")) {
		t.Fatalf("got %q, want exactly one line containing rs61733845", lines)
	}
}

func TestFetchBeyondLastRecordIsEmpty(t *testing.T) {
	f := buildIndexedFile(t,
		"1\t1108138\trs61733845\tA\tG\t100\tPASS\tNS=1",
	)
	lines, err := f.Fetch("1", 245804117, 245804117)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Fatalf("got %d lines, want 0", len(lines))
	}
}

func TestFetchBeforeFirstRecordIsEmpty(t *testing.T) {
	f := buildIndexedFile(t,
		"1\t1108138\trs1\tA\tG\t100\tPASS\tNS=1",
		"22\t20000\trs2\tC\tT\t100\tPASS\tNS=1",
	)
	lines, err := f.Fetch("22", 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Fatalf("got %d lines, want 0", len(lines))
	}
}

func TestFetchAbsentSequenceIsEmptyNotError(t *testing.T) {
	f := buildIndexedFile(t,
		"1\t1108138\trs1\tA\tG\t100\tPASS\tNS=1",
	)
	lines, err := f.Fetch("ZZ", 1, 1_000_000)
	if err != nil {
		t.Fatalf("got error %v, want nil", err)
	}
	if len(lines) != 0 {
		t.Fatalf("got %d lines, want 0", len(lines))
	}
}

func TestFetchHeaderStopsAtChromLine(t *testing.T) {
	f := buildIndexedFile(t,
		"##fileformat=VCFv4.1",
		"##INFO=<ID=NS,Number=1,Type=Integer,Description=\"n\">",
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
		"1\t100\trs1\tA\tG\t100\tPASS\tNS=1",
	)
	header, err := f.FetchHeader()
	if err != nil {
		t.Fatal(err)
	}
	if len(header) != 3 {
		t.Fatalf("got %d header lines, want 3", len(header))
	}
	if !bytes.HasPrefix(header[2], []byte("#CHROM")) {
		t.Fatalf("last header line = %q, want #CHROM prefix", header[2])
	}
}
