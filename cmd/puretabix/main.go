// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command puretabix is a thin wrapper around the package for manual
// inspection of a BGZF/Tabix-indexed VCF: it prints the VCF header,
// then fetches the records overlapping a region and prints them, one
// per line.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"os"
	"strconv"

	"golang.org/x/exp/mmap"

	"github.com/sanogenetics/puretabix"
	"github.com/sanogenetics/puretabix/bgzf"
	"github.com/sanogenetics/puretabix/tabix"
)

func main() {
	if len(os.Args) != 5 {
		fmt.Fprintf(os.Stderr, "usage: %s file.vcf.gz chrom begin end\n", os.Args[0])
		os.Exit(2)
	}
	vcfPath, chrom := os.Args[1], os.Args[2]
	begin, err := strconv.ParseUint(os.Args[3], 10, 32)
	check(err)
	end, err := strconv.ParseUint(os.Args[4], 10, 32)
	check(err)

	vcfFile, err := mmap.Open(vcfPath)
	check(err)
	defer vcfFile.Close()

	reader, err := bgzf.Open(vcfFile)
	check(err)

	idx, err := loadOrBuildIndex(vcfPath, reader)
	check(err)

	indexedReader, err := bgzf.Open(vcfFile)
	check(err)
	indexed := puretabix.Open(indexedReader, idx)

	header, err := indexed.FetchHeader()
	check(err)

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for _, line := range header {
		fmt.Fprintln(w, string(line))
	}

	lines, err := indexed.Fetch(chrom, uint32(begin), uint32(end))
	check(err)
	for _, line := range lines {
		fmt.Fprintln(w, string(line))
	}
}

// loadOrBuildIndex reads vcfPath+".tbi" if present, otherwise builds
// the index from the VCF itself via a fresh pass over reader.
func loadOrBuildIndex(vcfPath string, reader *bgzf.Reader) (*tabix.Index, error) {
	tbiPath := vcfPath + ".tbi"
	if tbiFile, err := mmap.Open(tbiPath); err == nil {
		defer tbiFile.Close()
		tbiReader, err := bgzf.Open(tbiFile)
		if err != nil {
			return nil, err
		}
		raw, err := tbiReader.ReadAll()
		if err != nil {
			return nil, err
		}
		return tabix.ReadFrom(bytes.NewReader(raw))
	}
	return tabix.BuildFrom(reader)
}

func check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
