package protocol

import (
	"fmt"
	"strconv"
)

// Severity classifies a server diagnostic. Values are ordered.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityFailed
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "None"
	case SeverityInfo:
		return "Info"
	case SeverityWarn:
		return "Warn"
	case SeverityFailed:
		return "Failed"
	case SeverityFatal:
		return "Fatal"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// IsOK reports s <= Info.
func (s Severity) IsOK() bool {
	return s <= SeverityInfo
}

// IsError reports s >= Failed.
func (s Severity) IsError() bool {
	return s >= SeverityFailed
}

func (s Severity) Max(other Severity) Severity {
	if other > s {
		return other
	}
	return s
}

// ErrorCode is the numeric code attached to each diagnostic format.
//
//	bits 28..31 severity
//	bits 24..27 argument count
//	bits 16..23 generic class
//	bits 10..15 subsystem
//	bits  0..9  subsystem code
type ErrorCode uint32

func ParseErrorCode(raw string) (ErrorCode, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: code %q", ErrBadNumber, raw)
	}
	return ErrorCode(uint32(v)), nil
}

func (c ErrorCode) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// Severity decodes bits 28..31. Anything above Fatal is reported as Fatal.
func (c ErrorCode) Severity() Severity {
	s := Severity((c >> 28) & 0x0f)
	if s > SeverityFatal {
		return SeverityFatal
	}
	return s
}

func (c ErrorCode) ArgCount() int {
	return int((c >> 24) & 0x0f)
}

func (c ErrorCode) Generic() int {
	return int((c >> 16) & 0xff)
}

func (c ErrorCode) Subsystem() int {
	return int((c >> 10) & 0x3f)
}

func (c ErrorCode) SubCode() int {
	return int(c & 0x3ff)
}

// NewErrorCode packs the fields back into a code.
func NewErrorCode(sev Severity, argc, generic, subsystem, subcode int) ErrorCode {
	return ErrorCode(uint32(sev&0x0f)<<28 |
		uint32(argc&0x0f)<<24 |
		uint32(generic&0xff)<<16 |
		uint32(subsystem&0x3f)<<10 |
		uint32(subcode&0x3ff))
}
