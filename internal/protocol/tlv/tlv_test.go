package tlv

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/p4ctl/internal/testutil/testlog"
)

func TestRecordWireLayout(t *testing.T) {
	testlog.Start(t)
	got := AppendRecord(nil, Record{Name: "func", Value: []byte("flush2")})
	want := []byte("func\x00\x06\x00\x00\x00flush2\x00")
	if !bytes.Equal(got, want) {
		t.Fatalf("layout mismatch: got=%q want=%q", got, want)
	}
	if len(got) != (Record{Name: "func", Value: []byte("flush2")}).Size() {
		t.Fatalf("size mismatch: %d", len(got))
	}
}

func TestEncodeDecodeRecords(t *testing.T) {
	testlog.Start(t)
	in := []Record{
		{Name: "data", Value: []byte{0x00, 0xff, 0x10}},
		{Name: "empty", Value: []byte{}},
		{Name: "", Value: []byte("positional")},
	}
	out, err := DecodeRecords(EncodeRecords(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("record count got=%d want=%d", len(out), len(in))
	}
	for i := range in {
		if out[i].Name != in[i].Name || !bytes.Equal(out[i].Value, in[i].Value) {
			t.Fatalf("record[%d] got=%+v want=%+v", i, out[i], in[i])
		}
	}
}

func TestDecodeRecordsMalformed(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name    string
		payload []byte
		want    error
	}{
		{name: "no terminator", payload: []byte("func"), want: ErrMissingTerminator},
		{name: "short length", payload: []byte("func\x00\x01\x00"), want: ErrShortValue},
		{name: "short value", payload: []byte("func\x00\x05\x00\x00\x00abc"), want: ErrShortValue},
		{name: "no trailing nul", payload: []byte("func\x00\x03\x00\x00\x00abc\x01"), want: ErrMissingTrailingNUL},
		{name: "value without trailing byte", payload: []byte("func\x00\x03\x00\x00\x00abc"), want: ErrShortValue},
	}
	for _, tc := range cases {
		_, err := DecodeRecords(tc.payload)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("%s: expected ErrMalformedRecord category, got %v", tc.name, err)
		}
	}
}

func TestDecodeRecordsEmptyPayload(t *testing.T) {
	testlog.Start(t)
	out, err := DecodeRecords(nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no records, got %d", len(out))
	}
}
