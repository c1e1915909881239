package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Form field names of a firmware upload.
const (
	FieldName    = "firmware_name"
	FieldType    = "firmware_type"
	FieldVersion = "firmware_version"
	FieldFile    = "firmware_file"
)

// Bytes returns the payload of the first field whose Content-Disposition contains name.
// A missing field or an absent payload yields an empty slice.
func (fs FieldSet) Bytes(name string) []byte {
	for _, p := range fs {
		if p.Disposition == nil || !strings.Contains(*p.Disposition, name) {
			continue
		}
		if p.Payload == nil {
			return []byte{}
		}
		return p.Payload
	}

	return []byte{}
}

// Text returns the named field as UTF-8 text.
func (fs FieldSet) Text(name string) (string, error) {
	b := fs.Bytes(name)
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: %s", ErrDecode, name)
	}

	return string(b), nil
}

// Int returns the named field parsed as a base-10 32-bit integer.
func (fs FieldSet) Int(name string) (int32, error) {
	s, err := fs.Text(name)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrParse, name, err)
	}

	return int32(v), nil
}
