// Package repair implements the repair engine (spec §4.5): given a
// single damaged lzip member and the trial-decode oracle's reported
// failure position, it walks backward from that position trying every
// possible single-byte value at each candidate offset until one decodes
// cleanly.
package repair

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/crazy-max/lziprecover-go/internal/exitcode"
	"github.com/crazy-max/lziprecover-go/internal/ioutil"
	"github.com/crazy-max/lziprecover-go/internal/oracle"
	"github.com/crazy-max/lziprecover-go/pkg/lzipfmt"
)

// searchWindow bounds how far back from the failure position the search
// looks, per spec §4.5 step 4: range-coded streams only propagate errors
// forward, so corruption always lies at or before where decoding stalled.
const searchWindow = 1000

// Decoder is the trial-decode oracle contract (spec §4.1), injected so
// the byte-flip search loop can be tested without a real LZMA stream.
type Decoder func(r io.ReadSeeker, length int64) (oracle.Result, error)

// Options configures a repair run.
type Options struct {
	Filename  string
	Output    string
	Force     bool
	Verbosity int
	Decode    Decoder
	// Progress, if set, is called with a printf-style format at
	// verbosity >= 1 to report search progress.
	Progress func(format string, args ...interface{})
}

// Result reports the outcome of a successful Run.
type Result struct {
	// NotNeeded is true when the input already decoded cleanly on its
	// own; no output file is written in that case.
	NotNeeded bool
}

func (o Options) progress(format string, args ...interface{}) {
	if o.Verbosity >= 1 && o.Progress != nil {
		o.Progress(format, args...)
	}
}

// Run executes the repair engine end to end: verifying the input,
// locating the oracle's reported failure position, and searching
// backward one byte at a time for a single-byte fix that decodes
// cleanly.
func Run(opts Options) (Result, error) {
	if opts.Decode == nil {
		return Result{}, exitcode.Wrap(exitcode.Internal, errors.New("repair: no decoder configured"))
	}

	in, isize, err := ioutil.OpenInput(opts.Filename)
	if err != nil {
		return Result{}, exitcode.Wrap(exitcode.Environmental, err)
	}
	defer in.Close()

	if isize < lzipfmt.MinMemberSize {
		return Result{}, exitcode.Wrap(exitcode.Corrupt, errors.New("input file is too short"))
	}
	if err := lzipfmt.VerifySingleMember(in, isize); err != nil {
		return Result{}, exitcode.Wrap(exitcode.Corrupt, errors.Wrap(err, "input file"))
	}

	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return Result{}, exitcode.Wrap(exitcode.Environmental, errors.Wrap(err, "seek error in input file"))
	}
	res, err := opts.Decode(in, isize)
	if err != nil {
		return Result{}, err
	}
	if res.Success {
		return Result{NotNeeded: true}, nil
	}

	f := res.FailurePos
	if f < 0 || f > isize-9 {
		f = isize - 9
	}
	if f < lzipfmt.HeaderSize {
		return Result{}, exitcode.Wrap(exitcode.Corrupt, errors.New("error is not repairable"))
	}

	out, err := ioutil.CreateOutput(opts.Output, opts.Force)
	if err != nil {
		return Result{}, exitcode.Wrap(exitcode.Environmental, err)
	}

	fail := func(code int, err error) (Result, error) {
		out.Close()
		return Result{}, exitcode.Wrap(code, err)
	}

	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return fail(exitcode.Environmental, errors.Wrap(err, "seek error in input file"))
	}
	if err := ioutil.CopyN(out, in, isize); err != nil {
		return fail(exitcode.Environmental, errors.Wrap(err, "error copying to output file"))
	}

	minPos := int64(lzipfmt.HeaderSize)
	if f-searchWindow > minPos {
		minPos = f - searchWindow
	}

	for pos := f; pos >= minPos; pos-- {
		opts.progress("Trying position %d", pos)

		orig := make([]byte, 1)
		if _, err := out.ReadAt(orig, pos); err != nil {
			return fail(exitcode.Environmental, errors.Wrap(err, "error reading output file"))
		}
		b := orig[0]
		success := false

		for trial := 0; trial < 255; trial++ {
			b++
			if _, err := out.WriteAt([]byte{b}, pos); err != nil {
				return fail(exitcode.Environmental, errors.Wrap(err, "error writing output file"))
			}
			if _, err := out.Seek(0, io.SeekStart); err != nil {
				return fail(exitcode.Environmental, errors.Wrap(err, "seek error in output file"))
			}
			res, err := opts.Decode(out, isize)
			if err != nil {
				out.Close()
				return Result{}, err
			}
			if res.Success {
				success = true
				break
			}
		}

		if success {
			if err := out.Close(); err != nil {
				return Result{}, exitcode.Wrap(exitcode.Environmental, errors.Wrap(err, "error closing output file"))
			}
			return Result{}, nil
		}

		// No value at pos decoded cleanly: the 256th increment wraps
		// b back to its original value, restoring the byte before
		// moving on to the next position. This asymmetry (restore
		// only on the no-success path) matches the original: on
		// success the file is left exactly as the winning trial
		// wrote it.
		b++
		if _, err := out.WriteAt([]byte{b}, pos); err != nil {
			return fail(exitcode.Environmental, errors.Wrap(err, "error writing output file"))
		}
	}

	out.Close()
	os.Remove(opts.Output)
	return Result{}, exitcode.Wrap(exitcode.Corrupt, errors.New("error is larger than 1 byte; can't repair input file"))
}
