// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vcf parses and serializes single lines of Variant Call
// Format text using a character-driven state machine, rather than
// splitting on delimiters: VCF meta-information lines nest commas,
// semicolons, colons and quoted strings inside each other, and a
// naive split mis-parses them.
package vcf

import (
	"strconv"
	"strings"
)

// Kind identifies which variant of VcfLine is populated.
type Kind int

const (
	// KindComment is a raw single-# comment line (not a meta-info line).
	KindComment Kind = iota
	// KindMetaScalar is a ##key=value meta-information line.
	KindMetaScalar
	// KindMetaStruct is a ##key=<field=value,...> meta-information line.
	KindMetaStruct
	// KindRecord is an ordinary tab-separated data record.
	KindRecord
)

// KV is one field=value pair of a structured meta-information line,
// preserved in first-seen order.
type KV struct {
	Key, Value string
}

// InfoEntry is one INFO key and its comma-separated values, preserved
// in first-seen order. A nil Values denotes a flag (key present, no
// '=').
type InfoEntry struct {
	Key    string
	Values []string
}

// VcfLine is a tagged value: exactly one group of fields below is
// meaningful, selected by Kind.
type VcfLine struct {
	Kind Kind

	// KindComment
	Comment string

	// KindMetaScalar / KindMetaStruct
	Key    string
	Value  string // KindMetaScalar
	Struct []KV   // KindMetaStruct

	// KindRecord
	Chrom   string
	Pos     uint32
	IDs     []string
	Ref     string
	Alts    []string
	QualRaw string
	Qual    float64
	HasQual bool
	Filters []string
	Info    []InfoEntry
	Format  []string
	Samples [][]string // each entry has len(Format) values, positional
}

// String reconstructs the original line text (without a trailing
// newline).
func (l *VcfLine) String() string {
	switch l.Kind {
	case KindComment:
		return "#" + l.Comment
	case KindMetaScalar:
		return "##" + l.Key + "=" + l.Value
	case KindMetaStruct:
		var b strings.Builder
		b.WriteString("##")
		b.WriteString(l.Key)
		b.WriteString("=<")
		for i, kv := range l.Struct {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(kv.Key)
			b.WriteByte('=')
			b.WriteString(kv.Value)
		}
		b.WriteByte('>')
		return b.String()
	case KindRecord:
		var b strings.Builder
		b.WriteString(l.Chrom)
		b.WriteByte('\t')
		b.WriteString(strconv.FormatUint(uint64(l.Pos), 10))
		b.WriteByte('\t')
		writeJoined(&b, l.IDs, ";")
		b.WriteByte('\t')
		b.WriteString(l.Ref)
		b.WriteByte('\t')
		writeJoined(&b, l.Alts, ",")
		b.WriteByte('\t')
		b.WriteString(l.QualRaw)
		b.WriteByte('\t')
		writeJoined(&b, l.Filters, ";")
		b.WriteByte('\t')
		for i, e := range l.Info {
			if i > 0 {
				b.WriteByte(';')
			}
			b.WriteString(e.Key)
			if e.Values != nil {
				b.WriteByte('=')
				writeJoined(&b, e.Values, ",")
			}
		}
		if len(l.Format) > 0 {
			b.WriteByte('\t')
			writeJoined(&b, l.Format, ":")
			for _, sample := range l.Samples {
				b.WriteByte('\t')
				writeJoined(&b, sample, ":")
			}
		}
		return b.String()
	default:
		return ""
	}
}

func writeJoined(b *strings.Builder, vals []string, sep string) {
	if len(vals) == 0 {
		return
	}
	for i, v := range vals {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(v)
	}
}
