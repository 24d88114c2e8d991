// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabix

import (
	"bytes"
	"testing"

	"github.com/kortschak/utter"

	"github.com/sanogenetics/puretabix/bgzf"
)

func writeBgzfVCF(t *testing.T, lines ...string) []byte {
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
	return buf.Bytes()
}

type sliceReaderAt []byte

func (s sliceReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(s)) {
		return 0, errEOF
	}
	n := copy(p, s[off:])
	if n < len(p) {
		return n, errEOF
	}
	return n, nil
}

type eofErr struct{}

func (eofErr) Error() string { return "EOF" }

var errEOF = eofErr{}

// P5: build then lookup. Building an index from a small VCF and
// looking up each record's own position must return a virtual range
// containing that record.
func TestBuildAndLookup(t *testing.T) {
	data := writeBgzfVCF(t,
		"##fileformat=VCFv4.1",
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
		"1\t1000\trs1\tA\tG\t100\tPASS\tNS=1",
		"1\t2000\trs2\tAC\tA\t100\tPASS\tNS=1",
		"2\t500\trs3\tC\tT\t100\tPASS\tNS=1",
	)

	r, err := bgzf.Open(sliceReaderAt(data))
	if err != nil {
		t.Fatal(err)
	}
	idx, err := BuildFrom(r)
	if err != nil {
		t.Fatal(err)
	}

	if idx.NumRefs() != 2 {
		t.Fatalf("NumRefs() = %d, want 2", idx.NumRefs())
	}

	cases := []struct {
		chrom      string
		pos        uint32
		wantRecord bool
	}{
		{"1", 1000, true},
		{"1", 2000, true},
		{"2", 500, true},
		{"1", 99999999, false},
		{"ZZ", 1, false},
	}
	for _, c := range cases {
		_, _, ok := idx.Lookup(c.chrom, c.pos-1, c.pos-1)
		if ok != c.wantRecord {
			t.Errorf("Lookup(%q,%d) ok=%v, want %v", c.chrom, c.pos, ok, c.wantRecord)
		}
	}
}

// P6: byte-exact round trip of the binary format.
func TestSerializeRoundTrip(t *testing.T) {
	data := writeBgzfVCF(t,
		"1\t1000\trs1\tA\tG\t100\tPASS\tNS=1",
		"1\t20000\trs2\tAC\tA\t100\tPASS\tNS=1",
		"2\t500\trs3\tC\tT\t100\tPASS\tNS=1",
	)
	r, err := bgzf.Open(sliceReaderAt(data))
	if err != nil {
		t.Fatal(err)
	}
	idx, err := BuildFrom(r)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := idx.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	parsed, err := ReadFrom(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}

	var buf2 bytes.Buffer
	if _, err := parsed.WriteTo(&buf2); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), buf2.Bytes()) {
		t.Fatalf("write(parse(write(idx))) != write(idx)")
	}

	for _, name := range idx.Names() {
		s1, e1, ok1 := idx.Lookup(name, 0, 1<<28)
		s2, e2, ok2 := parsed.Lookup(name, 0, 1<<28)
		if ok1 != ok2 || s1 != s2 || e1 != e2 {
			t.Errorf("lookup mismatch for %q: (%v,%v,%v) vs (%v,%v,%v)\noriginal: %s\nparsed: %s",
				name, s1, e1, ok1, s2, e2, ok2, utter.Sdump(idx), utter.Sdump(parsed))
		}
	}
}

func TestReadFromRejectsBadMagic(t *testing.T) {
	_, err := ReadFrom(bytes.NewReader([]byte("NOTB\x01\x00\x00\x00")))
	if err != ErrBadIndex && !bytesContains(err, ErrBadIndex) {
		t.Fatalf("got %v, want wrapping ErrBadIndex", err)
	}
}

func bytesContains(err error, target error) bool {
	for err != nil {
		if err == target {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
