// Package endian provides byte order utilities for the bitseq codecs.
//
// It combines the ByteOrder and AppendByteOrder interfaces from
// encoding/binary into a single EndianEngine interface, and exposes a host
// byte order probe. The probe is what resolves the "native endian" dtype
// variants (uintne, intne, floatne, bfloatne): a native-endian field is
// encoded and decoded with whichever engine matches the host at call time.
//
// # Basic Usage
//
//	engine := endian.Native()
//	buf = engine.AppendUint32(buf, value)
//
// # Thread Safety
//
// All functions in this package are safe for concurrent use. The returned
// EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from
// encoding/binary into a single interface for convenient byte order
// operations.
//
// The interface is satisfied by binary.LittleEndian and binary.BigEndian,
// so any standard library code that accepts a binary.ByteOrder accepts an
// EndianEngine as well.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	// 0x0100 is 256. For a little-endian system, the LSB (0x00) is first.
	// For a big-endian system, the MSB (0x01) is first.
	var i uint16 = 0x0100

	// Inspect the byte at the lowest memory address.
	b := (*[2]byte)(unsafe.Pointer(&i))

	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host byte order is little-endian.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// IsNativeBigEndian reports whether the host byte order is big-endian.
func IsNativeBigEndian() bool {
	return CheckEndianness() == binary.BigEndian
}

// Native returns the engine matching the host byte order.
//
// This is the resolution point for the *ne dtype variants: they are
// shorthand for "whatever the machine running this process uses".
func Native() EndianEngine {
	if IsNativeBigEndian() {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsLittleEndian reports whether e is the little-endian engine.
func IsLittleEndian(e EndianEngine) bool {
	return e == EndianEngine(binary.LittleEndian)
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
