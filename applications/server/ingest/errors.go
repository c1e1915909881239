package ingest

import (
	"errors"

	"github.com/bhawdeadlydan/mysfirmware/applications/server/ihex"
)

var (
	// ErrMultipartFraming is returned when the body cannot be split into parts
	// or nests deeper than allowed.
	ErrMultipartFraming = errors.New("malformed multipart body")

	// ErrFieldStream marks a field whose payload could not be drained.
	// It is only logged: the field is kept with an absent payload.
	ErrFieldStream = errors.New("can't read field payload")

	// ErrDecode is returned when a field is not valid UTF-8 text.
	ErrDecode = errors.New("field is not valid text")

	// ErrParse is returned when a numeric field is not a base-10 integer.
	ErrParse = errors.New("field is not a base-10 integer")
)

// Error kinds reported by Kind.
const (
	KindFraming         = "multipart_framing"
	KindDecode          = "decode"
	KindParse           = "parse"
	KindIHEXFormat      = "ihex_format"
	KindUnsupportedType = "unsupported_record_type"
	KindOther           = "other"
)

// Kind classifies a pipeline error for logs and metrics.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMultipartFraming):
		return KindFraming
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ihex.ErrUnsupportedRecordType):
		return KindUnsupportedType
	case errors.Is(err, ihex.ErrFormat):
		return KindIHEXFormat
	default:
		return KindOther
	}
}

// IsInvalidInput reports whether err was caused by the content of the upload
// rather than by its transport.
func IsInvalidInput(err error) bool {
	switch Kind(err) {
	case KindDecode, KindParse, KindIHEXFormat, KindUnsupportedType:
		return true
	default:
		return false
	}
}
