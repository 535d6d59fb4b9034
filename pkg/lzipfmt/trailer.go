package lzipfmt

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// TrailerSize is the fixed byte length of a member trailer.
const TrailerSize = 20

// Trailer is the fixed-layout record at the end of every lzip member.
// Member verification and the split scanner use only MemberSize; the
// trial-decode oracle also checks CRC32 and DataSize against the decoded
// data.
type Trailer struct {
	CRC32      uint32
	DataSize   uint64
	MemberSize uint64
}

// ReadTrailer reads and parses a TrailerSize-byte trailer from r.
func ReadTrailer(r io.Reader) (Trailer, error) {
	var buf [TrailerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Trailer{}, errors.Wrap(err, "reading member trailer")
	}
	return ParseTrailer(buf[:])
}

// ParseTrailer parses an already-read TrailerSize-byte buffer.
func ParseTrailer(buf []byte) (Trailer, error) {
	if len(buf) < TrailerSize {
		return Trailer{}, errors.New("short trailer buffer")
	}
	return Trailer{
		CRC32:      binary.LittleEndian.Uint32(buf[0:4]),
		DataSize:   binary.LittleEndian.Uint64(buf[4:12]),
		MemberSize: binary.LittleEndian.Uint64(buf[12:20]),
	}, nil
}

// MemberSizeAt extracts only the 8-byte little-endian member-size field
// from a TrailerSize-byte trailer buffer, without validating the rest of
// it.
func MemberSizeAt(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf[12:20])
}
