// Package split implements the split scanner (spec §4.6): a streaming,
// one-pass scan over a concatenation of lzip members (or a single member
// plus trailing garbage) that writes each recognized member to its own
// sequentially named output file.
package split

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/pkg/errors"

	"github.com/crazy-max/lziprecover-go/internal/exitcode"
	"github.com/crazy-max/lziprecover-go/internal/ioutil"
	"github.com/crazy-max/lziprecover-go/pkg/lzipfmt"
)

const chunkSize = 64 * 1024

// Options configures a split run.
type Options struct {
	Filename string
	// Suffix is appended to the "rec00001"-style base name to form each
	// output file's name; the input path itself is used verbatim by
	// the CLI layer when --output is not given.
	Suffix    string
	Force     bool
	Verbosity int
	Progress  func(format string, args ...interface{})
}

func (o Options) progress(format string, args ...interface{}) {
	if o.Verbosity >= 1 && o.Progress != nil {
		o.Progress(format, args...)
	}
}

// Run scans Filename and writes each recognized member to its own
// sequentially named output file.
func Run(opts Options) error {
	in, err := os.Open(opts.Filename)
	if err != nil {
		return exitcode.Wrap(exitcode.Environmental, errors.Wrapf(err, "can't open input file %q", opts.Filename))
	}
	defer in.Close()

	hsize := lzipfmt.HeaderSize
	tsize := lzipfmt.TrailerSize

	// window layout, mirroring the original's base_buffer:
	//   [0, tsize)                 trailer lookback zone
	//   [tsize, tsize+hsize)       carried-forward header lookahead
	//   [tsize+hsize, len(window)) live content, chunkSize bytes
	window := make([]byte, tsize+chunkSize+hsize)
	buffer := window[tsize:]

	n, err := ioutil.ReadBlock(in, buffer[:chunkSize+hsize])
	if err != nil {
		return exitcode.Wrap(exitcode.Environmental, errors.Wrap(err, "read error on input file"))
	}
	size := n - hsize
	atEnd := size < chunkSize
	if size <= tsize {
		return exitcode.Wrap(exitcode.Corrupt, errors.New("input file is too short"))
	}

	header, herr := lzipfmt.ParseHeader(buffer[:hsize])
	if herr != nil {
		return exitcode.Wrap(exitcode.Corrupt, herr)
	}
	if err := header.Verify(); err != nil {
		return exitcode.Wrap(exitcode.Corrupt, err)
	}

	name := []byte("rec00001" + opts.Suffix)
	out, err := ioutil.CreateOutput(string(name), opts.Force)
	if err != nil {
		return exitcode.Wrap(exitcode.Environmental, err)
	}

	partial := int64(0)
	for {
		pos := 0
		for newpos := 1; newpos <= size; newpos++ {
			if newpos+4 > len(buffer) {
				break
			}
			if !bytes.Equal(buffer[newpos:newpos+4], []byte(lzipfmt.Magic)) {
				continue
			}
			// The preceding 8 bytes may reach back into the trailer
			// lookback zone at the front of window when newpos is
			// small, so this reads from window rather than buffer.
			candidate := binary.LittleEndian.Uint64(window[tsize+newpos-8 : tsize+newpos])
			if partial+int64(newpos-pos) != int64(candidate) {
				continue
			}

			opts.progress("Splitting at offset %d", newpos)
			if _, err := ioutil.WriteBlock(out, buffer[pos:newpos]); err != nil {
				out.Close()
				return exitcode.Wrap(exitcode.Environmental, errors.Wrap(err, "write error on output file"))
			}
			if err := out.Close(); err != nil {
				return exitcode.Wrap(exitcode.Environmental, errors.Wrap(err, "error closing output file"))
			}
			if !nextFilename(name) {
				in.Close()
				return exitcode.Wrap(exitcode.Environmental, errors.New("too many members in file"))
			}
			out, err = ioutil.CreateOutput(string(name), opts.Force)
			if err != nil {
				return exitcode.Wrap(exitcode.Environmental, err)
			}
			partial = 0
			pos = newpos
		}

		if atEnd {
			if _, err := ioutil.WriteBlock(out, buffer[pos:size+hsize]); err != nil {
				out.Close()
				return exitcode.Wrap(exitcode.Environmental, errors.Wrap(err, "write error on output file"))
			}
			break
		}

		if pos < chunkSize {
			partial += int64(chunkSize - pos)
			if _, err := ioutil.WriteBlock(out, buffer[pos:chunkSize]); err != nil {
				out.Close()
				return exitcode.Wrap(exitcode.Environmental, errors.Wrap(err, "write error on output file"))
			}
		}

		copy(window[:tsize+hsize], window[chunkSize:])
		n, err = ioutil.ReadBlock(in, buffer[hsize:hsize+chunkSize])
		if err != nil {
			out.Close()
			return exitcode.Wrap(exitcode.Environmental, errors.Wrap(err, "read error on input file"))
		}
		size = n
		atEnd = size < chunkSize
	}

	if err := out.Close(); err != nil {
		return exitcode.Wrap(exitcode.Environmental, errors.Wrap(err, "error closing output file"))
	}
	return nil
}

// nextFilename advances the 5-digit numeric portion of a "rec00001..."
// style name (positions 7 down to 3) with carry, mirroring the
// original's next_filename. It reports false once the sequence is
// exhausted.
func nextFilename(name []byte) bool {
	for i := 7; i >= 3; i-- {
		if name[i] < '9' {
			name[i]++
			return true
		}
		name[i] = '0'
	}
	return false
}
