package lzipfmt

import (
	"io"

	"github.com/pkg/errors"
)

// ErrTooShort indicates a file shorter than MinMemberSize.
var ErrTooShort = errors.New("input file is too short")

// ErrMultiMember indicates a file whose trailer member-size is smaller
// than the file size and a second valid header was found at the implied
// boundary: the file holds more than one member.
var ErrMultiMember = errors.New("input file has more than 1 member; split it first")

// ErrCorruptTrailer indicates a trailer member-size that does not match
// the file size and no second member header was found either.
var ErrCorruptTrailer = errors.New("member size in input file trailer is corrupt")

// VerifySingleMember implements spec §4.2: it reads and validates the
// header, reads the trailer's member-size field, and requires that field
// equal size. rs is repositioned by this call; callers that need the
// stream at a particular offset afterwards must seek again.
func VerifySingleMember(rs io.ReadSeeker, size int64) error {
	if size < MinMemberSize {
		return ErrTooShort
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "seeking to member header")
	}
	header, err := ReadHeader(rs)
	if err != nil {
		return err
	}
	if err := header.Verify(); err != nil {
		return err
	}

	if _, err := rs.Seek(-int64(TrailerSize), io.SeekEnd); err != nil {
		return errors.Wrap(err, "seeking to member trailer")
	}
	trailer, err := ReadTrailer(rs)
	if err != nil {
		return err
	}

	memberSize := int64(trailer.MemberSize)
	if memberSize == size {
		return nil
	}

	if memberSize < size {
		if _, err := rs.Seek(size-memberSize, io.SeekStart); err == nil {
			if second, err := ReadHeader(rs); err == nil && second.Verify() == nil {
				return ErrMultiMember
			}
		}
	}
	return ErrCorruptTrailer
}
