package tlv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// lenSize is the little-endian value length that follows a record name.
const lenSize = 4

var (
	ErrMalformedRecord    = errors.New("tlv: malformed record")
	ErrMissingTerminator  = fmt.Errorf("%w: missing name terminator", ErrMalformedRecord)
	ErrShortValue         = fmt.Errorf("%w: short value", ErrMalformedRecord)
	ErrMissingTrailingNUL = fmt.Errorf("%w: missing trailing nul", ErrMalformedRecord)
)

// Record is one name/value pair of a payload. An empty Name marks a
// positional argument.
type Record struct {
	Name  string
	Value []byte
}

// Size is the encoded size of r.
func (r Record) Size() int {
	return len(r.Name) + 1 + lenSize + len(r.Value) + 1
}

// AppendRecord appends the wire form of r to dst.
func AppendRecord(dst []byte, r Record) []byte {
	dst = append(dst, r.Name...)
	dst = append(dst, 0)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(r.Value)))
	dst = append(dst, r.Value...)
	return append(dst, 0)
}

func EncodeRecords(records []Record) []byte {
	size := 0
	for _, r := range records {
		size += r.Size()
	}
	out := make([]byte, 0, size)
	for _, r := range records {
		out = AppendRecord(out, r)
	}
	return out
}

// DecodeRecords parses records until payload is exhausted. Values are copied
// out of payload.
func DecodeRecords(payload []byte) ([]Record, error) {
	records := make([]Record, 0, 8)
	for i := 0; i < len(payload); {
		end := bytes.IndexByte(payload[i:], 0)
		if end < 0 {
			return nil, ErrMissingTerminator
		}
		name := string(payload[i : i+end])
		i += end + 1

		if len(payload)-i < lenSize {
			return nil, ErrShortValue
		}
		l := binary.LittleEndian.Uint32(payload[i : i+lenSize])
		i += lenSize
		if uint64(l)+1 > uint64(len(payload)-i) {
			return nil, ErrShortValue
		}
		val := make([]byte, l)
		copy(val, payload[i:i+int(l)])
		i += int(l)

		if payload[i] != 0 {
			return nil, fmt.Errorf("%w: record %q", ErrMissingTrailingNUL, name)
		}
		i++
		records = append(records, Record{Name: name, Value: val})
	}
	return records, nil
}
