// Package marc builds MARC 21 bibliographic records for cataloged volumes
// and encodes them as ISO 2709 or mnemonic text.
package marc

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

const (
	fieldTerminator    = 0x1E
	recordTerminator   = 0x1D
	subfieldDelimiter  = 0x1F
	leaderLength       = 24
	directoryEntrySize = 12
	maxFieldLength     = 9999
	maxRecordLength    = 99999
)

// Subfield is one coded value inside a data field
type Subfield struct {
	Code  byte
	Value string
}

// Field is a control field (tag < 010, Data set) or a data field
// (indicators and subfields)
type Field struct {
	Tag       string
	Data      string
	Ind1      byte
	Ind2      byte
	Subfields []Subfield
}

// IsControl reports whether the field is a control field
func (f Field) IsControl() bool {
	return f.Tag < "010"
}

// Record is a MARC record with its fields kept in tag order
type Record struct {
	Fields []Field
}

// Add appends a field, keeping fields sorted by tag
func (r *Record) Add(f Field) {
	r.Fields = append(r.Fields, f)
	sort.SliceStable(r.Fields, func(i, j int) bool {
		return r.Fields[i].Tag < r.Fields[j].Tag
	})
}

// Get returns every field with the given tag
func (r *Record) Get(tag string) []Field {
	var out []Field
	for _, f := range r.Fields {
		if f.Tag == tag {
			out = append(out, f)
		}
	}
	return out
}

// Subfield returns the first value of code in f, or ""
func (f Field) Subfield(code byte) string {
	for _, sf := range f.Subfields {
		if sf.Code == code {
			return sf.Value
		}
	}
	return ""
}

func leader(recordLength, baseAddress int) string {
	return fmt.Sprintf("%05dnam a22%05d i 4500", recordLength, baseAddress)
}

// Marshal encodes the record in ISO 2709 transmission format
func (r *Record) Marshal() ([]byte, error) {
	var directory, data bytes.Buffer

	for _, f := range r.Fields {
		if len(f.Tag) != 3 {
			return nil, fmt.Errorf("invalid tag %q", f.Tag)
		}
		body := f.encode()
		if len(body) > maxFieldLength {
			return nil, fmt.Errorf("field %s is %d bytes, longer than %d", f.Tag, len(body), maxFieldLength)
		}
		fmt.Fprintf(&directory, "%s%04d%05d", f.Tag, len(body), data.Len())
		data.Write(body)
	}
	directory.WriteByte(fieldTerminator)

	baseAddress := leaderLength + directory.Len()
	recordLength := baseAddress + data.Len() + 1
	if recordLength > maxRecordLength {
		return nil, fmt.Errorf("record is %d bytes, longer than %d", recordLength, maxRecordLength)
	}

	out := make([]byte, 0, recordLength)
	out = append(out, leader(recordLength, baseAddress)...)
	out = append(out, directory.Bytes()...)
	out = append(out, data.Bytes()...)
	out = append(out, recordTerminator)
	return out, nil
}

func (f Field) encode() []byte {
	var b bytes.Buffer
	if f.IsControl() {
		b.WriteString(f.Data)
	} else {
		b.WriteByte(indicator(f.Ind1))
		b.WriteByte(indicator(f.Ind2))
		for _, sf := range f.Subfields {
			b.WriteByte(subfieldDelimiter)
			b.WriteByte(sf.Code)
			b.WriteString(sf.Value)
		}
	}
	b.WriteByte(fieldTerminator)
	return b.Bytes()
}

func indicator(b byte) byte {
	if b == 0 {
		return ' '
	}
	return b
}

// Mnemonic renders the record in MarcEdit mnemonic form
// (=TAG  indicators$aValue), blanks shown as backslashes
func (r *Record) Mnemonic() string {
	var marc strings.Builder

	marc.WriteString("=LDR  " + leader(0, 0) + "\n")
	for _, f := range r.Fields {
		if f.IsControl() {
			fmt.Fprintf(&marc, "=%s  %s\n", f.Tag, strings.ReplaceAll(f.Data, " ", "\\"))
			continue
		}
		fmt.Fprintf(&marc, "=%s  %c%c", f.Tag, mnemonicIndicator(f.Ind1), mnemonicIndicator(f.Ind2))
		for _, sf := range f.Subfields {
			fmt.Fprintf(&marc, "$%c%s", sf.Code, sf.Value)
		}
		marc.WriteString("\n")
	}

	return marc.String()
}

func mnemonicIndicator(b byte) byte {
	if b == 0 || b == ' ' {
		return '\\'
	}
	return b
}
