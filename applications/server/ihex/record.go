// Package ihex reads and writes Intel HEX records.
//
// A record is a single text line of the form
//
//	:BBAAAATTDD...DDCC
//
// where BB is the data byte count, AAAA the 16-bit address, TT the record type,
// DD the data bytes and CC the 2's complement checksum of all preceding bytes.
package ihex

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Errors returned while parsing records.
var (
	// ErrFormat is returned for a line that is not a structurally valid record
	// or whose checksum does not match.
	ErrFormat = errors.New("invalid ihex record")

	// ErrUnsupportedRecordType is returned for a record type outside 00-05.
	ErrUnsupportedRecordType = errors.New("unsupported ihex record type")
)

const (
	// StartCode prefixes every record line.
	StartCode = ':'

	// headerSize is byte count (1) + address (2) + record type (1).
	headerSize = 4

	// checksumSize is the size of the trailing checksum field.
	checksumSize = 1

	// MaxDataSize is the largest payload a single record can carry.
	MaxDataSize = 0xFF
)

// RecordType identifies the kind of an Intel HEX record.
type RecordType byte

// Record types defined by the Intel HEX format.
const (
	Data                   RecordType = 0x00
	EndOfFile              RecordType = 0x01
	ExtendedSegmentAddress RecordType = 0x02
	StartSegmentAddress    RecordType = 0x03
	ExtendedLinearAddress  RecordType = 0x04
	StartLinearAddress     RecordType = 0x05
)

func (t RecordType) String() string {
	switch t {
	case Data:
		return "Data"
	case EndOfFile:
		return "EndOfFile"
	case ExtendedSegmentAddress:
		return "ExtendedSegmentAddress"
	case StartSegmentAddress:
		return "StartSegmentAddress"
	case ExtendedLinearAddress:
		return "ExtendedLinearAddress"
	case StartLinearAddress:
		return "StartLinearAddress"
	default:
		return fmt.Sprintf("RecordType(0x%02X)", byte(t))
	}
}

// dataSize returns the payload size required by fixed-size record types.
// Data records accept any size and report ok == false.
func (t RecordType) dataSize() (size int, ok bool) {
	switch t {
	case EndOfFile:
		return 0, true
	case ExtendedSegmentAddress, ExtendedLinearAddress:
		return 2, true
	case StartSegmentAddress, StartLinearAddress:
		return 4, true
	default:
		return 0, false
	}
}

func (t RecordType) known() bool {
	return t <= StartLinearAddress
}

// Record is a single parsed Intel HEX line.
type Record struct {
	Type     RecordType
	Address  uint16
	Data     []byte
	Checksum byte
}

// NewRecord builds a record and computes its checksum.
func NewRecord(t RecordType, address uint16, data []byte) (Record, error) {
	if len(data) > MaxDataSize {
		return Record{}, fmt.Errorf("%w: %d data bytes exceed %d", ErrFormat, len(data), MaxDataSize)
	}

	rec := Record{
		Type:    t,
		Address: address,
		Data:    make([]byte, len(data)),
	}
	copy(rec.Data, data)
	rec.Checksum = Checksum(rec.header(), rec.Data)

	return rec, nil
}

func (r Record) header() []byte {
	h := make([]byte, headerSize)
	h[0] = byte(len(r.Data))
	binary.BigEndian.PutUint16(h[1:3], r.Address)
	h[3] = byte(r.Type)
	return h
}

// String encodes the record as an upper-case record line without line terminator.
func (r Record) String() string {
	raw := make([]byte, 0, headerSize+len(r.Data)+checksumSize)
	raw = append(raw, r.header()...)
	raw = append(raw, r.Data...)
	raw = append(raw, r.Checksum)

	return string(StartCode) + strings.ToUpper(hex.EncodeToString(raw))
}

// Checksum returns the 2's complement of the one-byte sum of the given byte slices.
// Adding it to that sum yields zero modulo 256.
func Checksum(parts ...[]byte) byte {
	var sum byte
	for _, p := range parts {
		for _, b := range p {
			sum += b
		}
	}
	return ^sum + 1
}

// ParseRecord parses one record line. The line must not contain surrounding whitespace.
func ParseRecord(line string) (Record, error) {
	if line == "" || line[0] != StartCode {
		return Record{}, fmt.Errorf("%w: missing start code %q", ErrFormat, StartCode)
	}

	raw, err := hex.DecodeString(line[1:])
	if err != nil {
		return Record{}, fmt.Errorf("%w: invalid hex data: %v", ErrFormat, err)
	}

	if len(raw) < headerSize+checksumSize {
		return Record{}, fmt.Errorf("%w: record too short: got %d bytes, minimum is %d",
			ErrFormat, len(raw), headerSize+checksumSize)
	}

	count := int(raw[0])
	if expected := headerSize + count + checksumSize; len(raw) != expected {
		return Record{}, fmt.Errorf("%w: length mismatch: got %d bytes, byte count %d requires %d",
			ErrFormat, len(raw), count, expected)
	}

	checksum := raw[len(raw)-1]
	if calculated := Checksum(raw[:len(raw)-1]); checksum != calculated {
		return Record{}, fmt.Errorf("%w: checksum mismatch: got 0x%02X, expected 0x%02X",
			ErrFormat, checksum, calculated)
	}

	t := RecordType(raw[3])
	if !t.known() {
		return Record{}, fmt.Errorf("%w: 0x%02X", ErrUnsupportedRecordType, raw[3])
	}

	if size, ok := t.dataSize(); ok && size != count {
		return Record{}, fmt.Errorf("%w: %s record must carry %d data bytes, got %d",
			ErrFormat, t, size, count)
	}

	rec := Record{
		Type:     t,
		Address:  binary.BigEndian.Uint16(raw[1:3]),
		Data:     make([]byte, count),
		Checksum: checksum,
	}
	copy(rec.Data, raw[headerSize:headerSize+count])

	return rec, nil
}
