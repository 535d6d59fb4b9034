// Package oracle implements the trial-decode oracle (spec §4.1): a
// yes/no-plus-failure-position adapter over an LZMA decoder, used by the
// merge and repair engines to test a candidate output image without ever
// caring about the decoded plaintext.
//
// The LZ/range decoder itself is treated as an external collaborator; this
// package wraps github.com/ulikunitz/xz/lzma, the same LZMA implementation
// github.com/sorairolake/lzip-go uses, rather than reimplementing one.
package oracle

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz/lzma"

	"github.com/crazy-max/lziprecover-go/pkg/lzipfmt"
)

// ErrOutOfMemory signals that the decoder could not allocate its
// dictionary. Per spec §4.1 this is not an ordinary decode failure: a
// caller that receives it must terminate the process rather than continue
// searching.
var ErrOutOfMemory = errors.New("not enough memory; find a machine with more memory")

// Result is the outcome of one trial decode.
type Result struct {
	Success bool
	// FailurePos is the byte offset at which the decoder stopped
	// consuming input. It is only meaningful when Success is false and
	// FailurePos >= 0; a negative value means no position could be
	// determined (header itself was invalid, or the member was empty).
	FailurePos int64
}

// unknownUnpackSize is the classic-LZMA sentinel meaning "unpacked size is
// not known; read until the end-of-stream marker". Lzip's LZMA1 variant
// always terminates its coded stream with an end marker, so this is used
// unconditionally instead of trusting the (possibly corrupted) trailer
// data-size field.
const unknownUnpackSize = 0xFFFFFFFFFFFFFFFF

// TryDecode implements spec §4.1's oracle contract. r must be positioned
// anywhere; TryDecode seeks it to zero itself and leaves it at an
// unspecified position on return. length is the expected total byte
// length of the member (header + coded data + trailer).
//
// TryDecode never mutates r's content. If the decoder cannot allocate its
// dictionary, TryDecode returns ErrOutOfMemory instead of a Result; the
// caller must treat that as fatal per spec §4.1, not as an ordinary
// search failure.
func TryDecode(r io.ReadSeeker, length int64) (result Result, err error) {
	result.FailurePos = -1

	if _, serr := r.Seek(0, io.SeekStart); serr != nil {
		return result, errors.Wrap(serr, "seeking to member start")
	}

	header, herr := lzipfmt.ReadHeader(r)
	if herr != nil {
		// EOF before a full header was read: "finished" before any
		// decoding began, matching try_decompress's initial check.
		return result, nil
	}
	if header.Version != 1 || !header.DictSizeInRange() {
		return result, nil
	}

	counting := &countingReader{r: r}

	defer func() {
		if p := recover(); p != nil {
			err = ErrOutOfMemory
		}
	}()

	dec, derr := newClassicReader(counting, header.DictionarySize())
	if derr != nil {
		result.FailurePos = lzipfmt.HeaderSize + counting.n
		return result, nil
	}

	dataSize, crc, decErr := drain(dec)
	if decErr != nil {
		result.FailurePos = lzipfmt.HeaderSize + counting.n
		return result, nil
	}

	// The LZMA1 stream ends at its own end-of-stream marker; it never
	// consumes the 20-byte trailer that follows it in the member. Read
	// the trailer directly from its known position (length-TrailerSize)
	// rather than trusting counting.n, which only approximates where the
	// coded stream actually ended because of lzma.Reader's internal
	// buffering. This is the same two-step "decode, then read the
	// trailer separately" sequence sorairolake/lzip-go's Reader.Read
	// uses after its decompressor reports io.EOF, and the same three
	// fields (CRC32, DataSize, MemberSize) it checks against the bytes
	// actually produced.
	if length < lzipfmt.TrailerSize {
		result.FailurePos = lzipfmt.HeaderSize + counting.n
		return result, nil
	}
	if _, serr := r.Seek(length-lzipfmt.TrailerSize, io.SeekStart); serr != nil {
		return result, errors.Wrap(serr, "seeking to member trailer")
	}
	trailer, terr := lzipfmt.ReadTrailer(r)
	if terr != nil {
		result.FailurePos = lzipfmt.HeaderSize + counting.n
		return result, nil
	}
	if trailer.MemberSize != uint64(length) || trailer.DataSize != uint64(dataSize) || trailer.CRC32 != crc {
		result.FailurePos = lzipfmt.HeaderSize + counting.n
		return result, nil
	}

	result.Success = true
	result.FailurePos = -1
	return result, nil
}

// newClassicReader synthesizes a classic 13-byte LZMA1 header (properties,
// dictionary size, unpacked size) in front of the coded stream so
// lzma.NewReader can be reused unmodified, following the same technique
// github.com/sorairolake/lzip-go uses to adapt lzip's headerless LZMA1
// stream to that package's classic-header API.
func newClassicReader(codedStream io.Reader, dictSize uint32) (io.Reader, error) {
	var classicHeader [lzma.HeaderLen]byte
	classicHeader[0] = lzma.Properties{LC: 3, LP: 0, PB: 2}.Code()
	binary.LittleEndian.PutUint32(classicHeader[1:5], dictSize)
	binary.LittleEndian.PutUint64(classicHeader[5:13], unknownUnpackSize)

	prefixed := io.MultiReader(bytesReader(classicHeader[:]), codedStream)
	return lzma.NewReader(prefixed)
}

func bytesReader(b []byte) io.Reader { return &byteSliceReader{b: b} }

type byteSliceReader struct {
	b []byte
	i int
}

func (r *byteSliceReader) Read(p []byte) (int, error) {
	if r.i >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.i:])
	r.i += n
	return n, nil
}

// countingReader tracks how many bytes have been pulled from the
// underlying coded-stream reader, giving a best-effort approximation of
// the decoder's consumed position for FailurePos. Internal buffering
// inside lzma.Reader means this can overshoot the decoder's true logical
// position by up to one internal read's worth of bytes; spec §4.1 allows
// the failure position to be reported only "optionally" for exactly this
// reason.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// drain reads dec to completion (or error), returning the total number of
// decoded bytes produced and their CRC32, so the caller can check both
// against the member's trailer the same way sorairolake/lzip-go's Reader
// does while streaming.
func drain(dec io.Reader) (int64, uint32, error) {
	var total int64
	crc := crc32.NewIEEE()
	buf := make([]byte, 32*1024)
	for {
		n, err := dec.Read(buf)
		total += int64(n)
		crc.Write(buf[:n])
		if err != nil {
			if err == io.EOF {
				return total, crc.Sum32(), nil
			}
			return total, crc.Sum32(), err
		}
		if n == 0 {
			return total, crc.Sum32(), nil
		}
	}
}
