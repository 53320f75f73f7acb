// Package protocol owns the RPC message model and wire encoding.
//
// Ownership boundary:
// - frame primitives (checksum + length header)
// - tlv record primitives (named and positional values)
// - Message/Builder, severity and diagnostic code decoding
package protocol
