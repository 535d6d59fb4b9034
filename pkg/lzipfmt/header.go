// Package lzipfmt implements byte-exact parsing and validation of the lzip
// container layout: the fixed-size member header and trailer described by
// the lzip file format (magic string, version, dictionary size, member
// size). It does not decode the LZMA-coded payload between them.
package lzipfmt

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Magic is the 4-byte string identifying an lzip member.
const Magic = "LZIP"

// HeaderSize is the fixed byte length of a member header.
const HeaderSize = 6

// MinDictSize and MaxDictSize bound the dictionary size accepted from a
// header's dictionary-size byte.
const (
	MinDictSize = 1 << 12 // 4 KiB
	MaxDictSize = 1 << 29 // 512 MiB
)

// MinMemberSize is the smallest possible size of a well-formed member: any
// input shorter than this cannot be a valid single member regardless of
// what its header and trailer claim.
const MinMemberSize = 36

// ErrBadMagic indicates the header's first 4 bytes are not "LZIP".
var ErrBadMagic = errors.New("bad magic number (file not in lzip format)")

// ErrVersion0 indicates a version 0 member, which predates the trailer
// layout this tool understands and cannot be recovered.
var ErrVersion0 = errors.New("version 0 member format can't be recovered")

// UnsupportedVersionError indicates a member version other than 0 or 1.
type UnsupportedVersionError struct{ Version byte }

func (e *UnsupportedVersionError) Error() string {
	return "version " + strconv.Itoa(int(e.Version)) + " member format not supported"
}

// Header is the fixed-layout record at the start of every lzip member.
type Header struct {
	Version  byte
	DictByte byte
}

// ReadHeader reads and parses a HeaderSize-byte header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, errors.Wrap(err, "reading member header")
	}
	return ParseHeader(buf[:])
}

// ParseHeader parses an already-read HeaderSize-byte buffer.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, errors.New("short header buffer")
	}
	if string(buf[:4]) != Magic {
		return Header{}, ErrBadMagic
	}
	return Header{Version: buf[4], DictByte: buf[5]}, nil
}

// VerifyMagic reports whether buf begins with the lzip magic string.
func VerifyMagic(buf []byte) bool {
	return len(buf) >= 4 && string(buf[:4]) == Magic
}

// Verify checks the version and returns a distinct error for version 0,
// for an unrecognized version, and nil for the one supported version.
func (h Header) Verify() error {
	switch h.Version {
	case 0:
		return ErrVersion0
	case 1:
		return nil
	default:
		return &UnsupportedVersionError{Version: h.Version}
	}
}

// DictionarySize decodes the dictionary size encoded in the header's sixth
// byte, following the lzip format's biased-exponent encoding.
func (h Header) DictionarySize() uint32 {
	size := uint32(1) << (h.DictByte & 0x1f)
	size -= (size / 16) * uint32((h.DictByte>>5)&0x07)
	return size
}

// DictSizeInRange reports whether the header's dictionary size falls within
// the bounds this tool supports.
func (h Header) DictSizeInRange() bool {
	d := h.DictionarySize()
	return d >= MinDictSize && d <= MaxDictSize
}
