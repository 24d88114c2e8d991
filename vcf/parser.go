// Copyright ©2024 The puretabix Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vcf

import "strconv"

// Parse parses one line of VCF text (without its trailing newline, if
// any — callers typically hand it lines produced by
// bgzf.Reader.Lines, which already strips it) into a VcfLine.
//
// Parse is all-or-nothing: a single rejected character anywhere in
// the line fails the whole call with a *ParseError.
func Parse(line []byte) (*VcfLine, error) {
	if len(line) == 0 {
		return nil, newParseError("LINE_START", 0)
	}
	if line[0] == '#' {
		return parseCommentOrMeta(line)
	}
	return parseRecord(line)
}

// parseCommentOrMeta implements the COMMENT/COMMENT_KEY/COMMENT_VALUE/
// COMMENT_STRUCT_KEY/COMMENT_STRUCT_VALUE/COMMENT_STRUCT_VALUE_QUOTED
// states.
func parseCommentOrMeta(line []byte) (*VcfLine, error) {
	const (
		stComment = iota
		stCommentKey
		stCommentValue
		stCommentStructKey
		stCommentStructValue
		stCommentStructValueQuoted
	)

	var comment, key, value, structKey, structValue []byte
	var fields []KV
	inStruct := false

	st := stComment
	i := 1
	n := len(line)
	for {
		eoi := i >= n
		var c byte
		if !eoi {
			c = line[i]
		}

		switch st {
		case stComment:
			if eoi || c == '\n' {
				if inStruct {
					return &VcfLine{Kind: KindMetaStruct, Key: string(key), Struct: fields}, nil
				}
				return &VcfLine{Kind: KindComment, Comment: string(comment)}, nil
			}
			if c == '#' {
				st = stCommentKey
				i++
				continue
			}
			comment = append(comment, c)
			i++

		case stCommentKey:
			if eoi || c == '\n' {
				return nil, newParseError("COMMENT_KEY", i)
			}
			if c == '=' {
				st = stCommentValue
				i++
				continue
			}
			key = append(key, c)
			i++

		case stCommentValue:
			if eoi || c == '\n' {
				return &VcfLine{Kind: KindMetaScalar, Key: string(key), Value: string(value)}, nil
			}
			if c == '<' {
				inStruct = true
				st = stCommentStructKey
				i++
				continue
			}
			value = append(value, c)
			i++

		case stCommentStructKey:
			if eoi || c == '\n' {
				return nil, newParseError("COMMENT_STRUCT_KEY", i)
			}
			if c == '=' {
				st = stCommentStructValue
				i++
				continue
			}
			structKey = append(structKey, c)
			i++

		case stCommentStructValue:
			if eoi || c == '\n' {
				return nil, newParseError("COMMENT_STRUCT_VALUE", i)
			}
			switch c {
			case '"':
				structValue = append(structValue, c)
				st = stCommentStructValueQuoted
				i++
			case ',':
				fields = append(fields, KV{Key: string(structKey), Value: string(structValue)})
				structKey, structValue = nil, nil
				st = stCommentStructKey
				i++
			case '>':
				fields = append(fields, KV{Key: string(structKey), Value: string(structValue)})
				structKey, structValue = nil, nil
				st = stComment
				i++
			default:
				structValue = append(structValue, c)
				i++
			}

		case stCommentStructValueQuoted:
			if eoi || c == '\n' {
				return nil, newParseError("COMMENT_STRUCT_VALUE_QUOTED", i)
			}
			structValue = append(structValue, c)
			i++
			if c == '"' {
				st = stCommentStructValue
			}
		}
	}
}

// parseRecord implements the CHROM..SAMPLE states of a data line.
func parseRecord(line []byte) (*VcfLine, error) {
	rec := &VcfLine{Kind: KindRecord}
	i := 0

	r, err := scan(line, i, "\t", nil, "CHROM")
	if err != nil {
		return nil, err
	}
	if r.stop != '\t' {
		return nil, newParseError("CHROM", r.next)
	}
	rec.Chrom = string(r.token)
	i = r.next

	r, err = scan(line, i, "\t", isDigit, "POS")
	if err != nil {
		return nil, err
	}
	if r.stop != '\t' || len(r.token) == 0 {
		return nil, newParseError("POS", r.next)
	}
	pos, convErr := strconv.ParseUint(string(r.token), 10, 32)
	if convErr != nil {
		return nil, newParseErrorChar("POS", i, r.token[0])
	}
	rec.Pos = uint32(pos)
	i = r.next

	for {
		r, err = scan(line, i, ";\t", isIDChar, "ID")
		if err != nil {
			return nil, err
		}
		rec.IDs = append(rec.IDs, string(r.token))
		i = r.next
		if r.stop == '\t' {
			break
		}
		if r.stop != ';' {
			return nil, newParseError("ID", i)
		}
	}

	r, err = scan(line, i, "\t", isRefBase, "REF")
	if err != nil {
		return nil, err
	}
	if r.stop != '\t' {
		return nil, newParseError("REF", r.next)
	}
	rec.Ref = string(r.token)
	i = r.next

	for {
		r, err = scan(line, i, ",\t", nil, "ALT")
		if err != nil {
			return nil, err
		}
		rec.Alts = append(rec.Alts, string(r.token))
		i = r.next
		if r.stop == '\t' {
			break
		}
		if r.stop != ',' {
			return nil, newParseError("ALT", i)
		}
	}

	r, err = scan(line, i, "\t", isQualChar, "QUAL")
	if err != nil {
		return nil, err
	}
	if r.stop != '\t' {
		return nil, newParseError("QUAL", r.next)
	}
	rec.QualRaw = string(r.token)
	if q, convErr := strconv.ParseFloat(rec.QualRaw, 64); convErr == nil {
		rec.Qual = q
		rec.HasQual = true
	}
	i = r.next

	for {
		r, err = scan(line, i, ";\t", nil, "FILTER")
		if err != nil {
			return nil, err
		}
		rec.Filters = append(rec.Filters, string(r.token))
		i = r.next
		if r.stop == '\t' {
			break
		}
		if r.stop != ';' {
			return nil, newParseError("FILTER", i)
		}
	}

	return parseInfo(rec, line, i)
}

// parseInfo implements the INFO_KEY/INFO_VALUE states.
func parseInfo(rec *VcfLine, line []byte, i int) (*VcfLine, error) {
	for {
		r, err := scan(line, i, "=;\t", nil, "INFO_KEY")
		if err != nil {
			return nil, err
		}
		key := string(r.token)
		i = r.next

		switch r.stop {
		case 0, '\n':
			rec.Info = append(rec.Info, InfoEntry{Key: key})
			return rec, nil
		case ';':
			rec.Info = append(rec.Info, InfoEntry{Key: key})
			continue
		case '\t':
			rec.Info = append(rec.Info, InfoEntry{Key: key})
			return parseFormatAndSamples(rec, line, i)
		case '=':
			var values []string
			for {
				vr, err := scan(line, i, ",;\t", nil, "INFO_VALUE")
				if err != nil {
					return nil, err
				}
				values = append(values, string(vr.token))
				i = vr.next
				switch vr.stop {
				case ',':
					continue
				case 0, '\n':
					rec.Info = append(rec.Info, InfoEntry{Key: key, Values: values})
					return rec, nil
				case ';':
					rec.Info = append(rec.Info, InfoEntry{Key: key, Values: values})
				case '\t':
					rec.Info = append(rec.Info, InfoEntry{Key: key, Values: values})
					return parseFormatAndSamples(rec, line, i)
				}
				break
			}
		}
	}
}

// parseFormatAndSamples implements the FORMAT/SAMPLE states.
func parseFormatAndSamples(rec *VcfLine, line []byte, i int) (*VcfLine, error) {
	var lastStop byte
	for {
		r, err := scan(line, i, ":\t", nil, "FORMAT")
		if err != nil {
			return nil, err
		}
		rec.Format = append(rec.Format, string(r.token))
		i = r.next
		lastStop = r.stop
		if r.stop == ':' {
			continue
		}
		break
	}
	if (lastStop == 0 || lastStop == '\n') && len(rec.Format) == 1 && rec.Format[0] == "" {
		// No FORMAT column at all (line ended exactly at INFO).
		rec.Format = nil
		return rec, nil
	}
	if lastStop == 0 || lastStop == '\n' {
		return rec, nil
	}

	for i < len(line) {
		var sample []string
		for {
			r, err := scan(line, i, ":\t", nil, "SAMPLE")
			if err != nil {
				return nil, err
			}
			sample = append(sample, string(r.token))
			i = r.next
			lastStop = r.stop
			if r.stop == ':' {
				continue
			}
			break
		}
		rec.Samples = append(rec.Samples, sample)
		if lastStop == '\n' {
			break
		}
	}
	return rec, nil
}
