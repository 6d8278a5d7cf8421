// Package container implements the binary persistence format for
// assembled Cythan memory images (spec §4.7, component H): a
// varint-framed header followed by a varint-encoded memory image.
// Grounded on the teacher's pkg/z80asm/encoder.go, which writes its
// own output format as plain byte slices rather than reaching for a
// serialization library — encoding/binary's Uvarint/PutUvarint are the
// standard-library primitive for exactly this, and no third-party
// varint codec is imported anywhere in the example pack.
package container

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/cythanc/cythanc/pkg/diag"
)

// DefaultHeaderVersion, DefaultSpecVersion, DefaultInterruptConfig and
// DefaultBase are the values the external driver stamps onto freshly
// assembled binaries (spec §6).
const (
	DefaultHeaderVersion   = 1
	DefaultSpecVersion     = 4
	DefaultInterruptConfig = 1
	DefaultBase            = 4
)

// Header carries the fixed-format preamble of a container file.
type Header struct {
	HeaderVersion   uint64
	SpecVersion     uint64
	InterruptConfig uint64
	Base            byte
	Info            string
}

// DefaultHeader returns the header the external driver stamps onto a
// freshly assembled binary (spec §6): the Cythan target is 4-bit, so
// Base is DefaultBase and Info starts empty.
func DefaultHeader() Header {
	return Header{
		HeaderVersion:   DefaultHeaderVersion,
		SpecVersion:     DefaultSpecVersion,
		InterruptConfig: DefaultInterruptConfig,
		Base:            DefaultBase,
	}
}

// Image is a decoded container: its header plus the assembled memory,
// one machine word per cell.
type Image struct {
	Header Header
	Memory []uint64
}

// Encode serializes img as: header fields as unsigned varints (Base as
// a single raw byte), Info as a varint length prefix plus UTF-8 bytes,
// then the memory image as a varint length prefix plus that many
// varint-encoded cells (spec §4.7).
func Encode(img Image) []byte {
	buf := make([]byte, 0, 64+len(img.Memory))
	var scratch [binary.MaxVarintLen64]byte

	putUvarint := func(v uint64) {
		n := binary.PutUvarint(scratch[:], v)
		buf = append(buf, scratch[:n]...)
	}

	putUvarint(img.Header.HeaderVersion)
	putUvarint(img.Header.SpecVersion)
	putUvarint(img.Header.InterruptConfig)
	buf = append(buf, img.Header.Base)

	info := []byte(img.Header.Info)
	putUvarint(uint64(len(info)))
	buf = append(buf, info...)

	putUvarint(uint64(len(img.Memory)))
	for _, cell := range img.Memory {
		putUvarint(cell)
	}

	return buf
}

// Decode parses a container produced by Encode. Invalid UTF-8 in Info
// is lossily substituted (utf8.RuneError replacement) rather than
// rejected, per spec §4.7; every other structural malformation is an
// IOError.
func Decode(data []byte) (Image, error) {
	r := &reader{data: data}

	headerVersion, err := r.uvarint()
	if err != nil {
		return Image{}, diag.IO("container: reading headerVersion: %v", err)
	}
	specVersion, err := r.uvarint()
	if err != nil {
		return Image{}, diag.IO("container: reading specVersion: %v", err)
	}
	interruptConfig, err := r.uvarint()
	if err != nil {
		return Image{}, diag.IO("container: reading interruptConfig: %v", err)
	}
	base, err := r.byte_()
	if err != nil {
		return Image{}, diag.IO("container: reading base: %v", err)
	}

	infoLen, err := r.uvarint()
	if err != nil {
		return Image{}, diag.IO("container: reading info length: %v", err)
	}
	infoBytes, err := r.take(int(infoLen))
	if err != nil {
		return Image{}, diag.IO("container: reading info bytes: %v", err)
	}
	info := toValidUTF8(infoBytes)

	memLen, err := r.uvarint()
	if err != nil {
		return Image{}, diag.IO("container: reading memory length: %v", err)
	}
	memory := make([]uint64, memLen)
	for i := range memory {
		cell, err := r.uvarint()
		if err != nil {
			return Image{}, diag.IO("container: reading cell %d: %v", i, err)
		}
		memory[i] = cell
	}

	return Image{
		Header: Header{
			HeaderVersion:   headerVersion,
			SpecVersion:     specVersion,
			InterruptConfig: interruptConfig,
			Base:            base,
			Info:            info,
		},
		Memory: memory,
	}, nil
}

// toValidUTF8 substitutes each invalid byte sequence with the Unicode
// replacement character rather than rejecting the input (spec §4.7).
func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out := make([]rune, 0, len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		out = append(out, r)
		b = b[size:]
	}
	return string(out)
}

// reader is a minimal forward-only cursor over a byte slice, used only
// internally by Decode; it has no exported surface of its own.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, errTruncated
	}
	r.pos += n
	return v, nil
}

func (r *reader) byte_() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errTruncated
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, errTruncated
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

type sentinelError string

func (e sentinelError) Error() string { return string(e) }

const errTruncated = sentinelError("unexpected end of container data")
