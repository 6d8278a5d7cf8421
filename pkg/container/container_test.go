package container

import (
	"reflect"
	"testing"
)

func TestRoundTripDefaultHeader(t *testing.T) {
	img := Image{
		Header: DefaultHeader(),
		Memory: []uint64{0, 1, 2, 15, 255, 1 << 20},
	}

	encoded := Encode(img)
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, img) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, img)
	}

	reencoded := Encode(decoded)
	if !reflect.DeepEqual(reencoded, encoded) {
		t.Fatalf("re-encoding mismatch:\ngot  %v\nwant %v", reencoded, encoded)
	}
}

func TestRoundTripWithInfo(t *testing.T) {
	h := DefaultHeader()
	h.Info = "cythan image: hello, 世界"
	img := Image{Header: h, Memory: []uint64{3, 3, 3}}

	decoded, err := Decode(Encode(img))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Header.Info != h.Info {
		t.Fatalf("Info = %q, want %q", decoded.Header.Info, h.Info)
	}
}

func TestRoundTripEmptyMemory(t *testing.T) {
	img := Image{Header: DefaultHeader(), Memory: nil}
	decoded, err := Decode(Encode(img))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded.Memory) != 0 {
		t.Fatalf("Memory = %v, want empty", decoded.Memory)
	}
}

func TestRoundTripLargeBase(t *testing.T) {
	h := DefaultHeader()
	h.Base = 255 // header.base < 256, the round-trip law's stated bound
	img := Image{Header: h, Memory: []uint64{0}}

	decoded, err := Decode(Encode(img))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Header.Base != 255 {
		t.Fatalf("Base = %d, want 255", decoded.Header.Base)
	}
}

func TestDecodeInvalidUTF8IsLossilySubstituted(t *testing.T) {
	h := DefaultHeader()
	img := Image{Header: h, Memory: nil}
	encoded := Encode(img)

	// Splice in a malformed 2-byte sequence for Info without going
	// through Encode's own (always-valid) string conversion.
	badInfo := []byte{0xff, 0xfe, 'o', 'k'}
	patched := patchInfo(t, encoded, badInfo)

	decoded, err := Decode(patched)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Header.Info == string(badInfo) {
		t.Fatalf("expected lossy substitution, got identical invalid bytes back")
	}
	if want := "ok"; decoded.Header.Info[len(decoded.Header.Info)-2:] != want {
		t.Fatalf("expected valid suffix %q preserved, got %q", want, decoded.Header.Info)
	}
}

func TestDecodeTruncatedIsIOError(t *testing.T) {
	img := Image{Header: DefaultHeader(), Memory: []uint64{1, 2, 3}}
	encoded := Encode(img)

	_, err := Decode(encoded[:len(encoded)-1])
	if err == nil {
		t.Fatalf("expected IOError on truncated input, got nil")
	}
}

// patchInfo rebuilds an encoded container with data[infoStart:infoEnd]
// replaced by badInfo, keeping the varint length prefix consistent.
func patchInfo(t *testing.T, data []byte, badInfo []byte) []byte {
	t.Helper()
	r := &reader{data: data}
	if _, err := r.uvarint(); err != nil {
		t.Fatalf("headerVersion: %v", err)
	}
	if _, err := r.uvarint(); err != nil {
		t.Fatalf("specVersion: %v", err)
	}
	if _, err := r.uvarint(); err != nil {
		t.Fatalf("interruptConfig: %v", err)
	}
	if _, err := r.byte_(); err != nil {
		t.Fatalf("base: %v", err)
	}
	infoLenStart := r.pos
	infoLen, err := r.uvarint()
	if err != nil {
		t.Fatalf("info length: %v", err)
	}
	infoDataStart := r.pos

	var out []byte
	out = append(out, data[:infoLenStart]...)

	lenBuf := make([]byte, 0, 10)
	lenBuf = appendUvarint(lenBuf, uint64(len(badInfo)))
	out = append(out, lenBuf...)
	out = append(out, badInfo...)
	out = append(out, data[infoDataStart+int(infoLen):]...)
	return out
}

func appendUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}
