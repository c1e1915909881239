package ihex

import (
	"bytes"
	"fmt"
	"strings"
)

// DefaultBytesPerRecord is the Data record payload size used by Encode when none is given.
const DefaultBytesPerRecord = 16

// Decode parses Intel HEX text and returns the binary image formed by the data of
// every Data record, appended in line order.
//
// Lines that are blank after trimming are skipped. Record addresses and the
// address records (types 02-05) are validated but not applied, so the image is
// contiguous regardless of gaps or reordering in the input.
// The first invalid line aborts decoding.
func Decode(text string) ([]byte, error) {
	var image bytes.Buffer

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		rec, err := ParseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}

		if rec.Type == Data {
			image.Write(rec.Data)
		}
	}

	return image.Bytes(), nil
}

// Encode renders image as Intel HEX text: Data records of at most bytesPerRecord
// bytes each, an ExtendedLinearAddress record at every 64 KiB boundary past the
// first and a final EndOfFile record. Lines end with "\n".
func Encode(image []byte, bytesPerRecord int) (string, error) {
	if bytesPerRecord <= 0 {
		bytesPerRecord = DefaultBytesPerRecord
	}
	if bytesPerRecord > MaxDataSize {
		return "", fmt.Errorf("%w: %d bytes per record exceed %d", ErrFormat, bytesPerRecord, MaxDataSize)
	}

	var (
		sb    strings.Builder
		upper = 0
	)

	write := func(t RecordType, address uint16, data []byte) error {
		rec, err := NewRecord(t, address, data)
		if err != nil {
			return err
		}
		sb.WriteString(rec.String())
		sb.WriteByte('\n')
		return nil
	}

	for offset := 0; offset < len(image); {
		if u := offset >> 16; u != upper {
			if u > 0xFFFF {
				return "", fmt.Errorf("%w: image larger than 4 GiB", ErrFormat)
			}
			upper = u
			if err := write(ExtendedLinearAddress, 0, []byte{byte(u >> 8), byte(u)}); err != nil {
				return "", err
			}
		}

		address := offset & 0xFFFF
		n := min(bytesPerRecord, len(image)-offset, 0x10000-address)
		if err := write(Data, uint16(address), image[offset:offset+n]); err != nil {
			return "", err
		}
		offset += n
	}

	if err := write(EndOfFile, 0, nil); err != nil {
		return "", err
	}

	return sb.String(), nil
}
