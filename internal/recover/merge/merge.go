// Package merge implements the merge engine (spec §4.4): given two or
// more copies of the same logical lzip file that differ only in a few
// damaged regions, it searches for a combination of per-block choices
// across the copies that decodes cleanly.
package merge

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/crazy-max/lziprecover-go/internal/exitcode"
	"github.com/crazy-max/lziprecover-go/internal/ioutil"
	"github.com/crazy-max/lziprecover-go/internal/oracle"
	"github.com/crazy-max/lziprecover-go/internal/recover/block"
	"github.com/crazy-max/lziprecover-go/internal/recover/diffscan"
	"github.com/crazy-max/lziprecover-go/pkg/lzipfmt"
)

// int32Max mirrors the original implementation's use of a 32-bit signed
// C int for the variation-count overflow guard.
const int32Max = int64(1<<31 - 1)

// Decoder is the trial-decode oracle contract (spec §4.1), injected so
// the search loop below can be tested without a real LZMA stream.
type Decoder func(r io.ReadSeeker, length int64) (oracle.Result, error)

// Options configures a merge run.
type Options struct {
	Filenames []string
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
	// NotNeeded is true when one of the inputs already decoded cleanly
	// on its own; no output file is written in that case.
	NotNeeded bool
	// Which names the input that needed no recovery, when NotNeeded.
	Which string
}

func (o Options) progress(format string, args ...interface{}) {
	if o.Verbosity >= 1 && o.Progress != nil {
		o.Progress(format, args...)
	}
}

// Run executes the merge engine end to end: opening inputs, verifying
// them, scanning for disagreement blocks, and searching the
// combinatorial space of per-block choices for a decodable combination.
func Run(opts Options) (Result, error) {
	if len(opts.Filenames) < 2 {
		return Result{}, exitcode.Wrap(exitcode.Environmental, errors.New("you must specify at least 2 files"))
	}
	if opts.Decode == nil {
		return Result{}, exitcode.Wrap(exitcode.Internal, errors.New("merge: no decoder configured"))
	}

	inputs := make([]*os.File, len(opts.Filenames))
	var isize int64
	for i, name := range opts.Filenames {
		f, size, err := ioutil.OpenInput(name)
		if err != nil {
			closeAll(inputs[:i])
			return Result{}, exitcode.Wrap(exitcode.Environmental, err)
		}
		if i == 0 {
			isize = size
		} else if size != isize {
			closeAll(inputs[:i+1])
			return Result{}, exitcode.Wrap(exitcode.Environmental, errors.New("sizes of input files are different"))
		}
		inputs[i] = f
	}
	defer closeAll(inputs)

	if isize < lzipfmt.MinMemberSize {
		return Result{}, exitcode.Wrap(exitcode.Corrupt, errors.New("input file is too short"))
	}
	for i, f := range inputs {
		if err := lzipfmt.VerifySingleMember(f, isize); err != nil {
			return Result{}, exitcode.Wrap(exitcode.Corrupt, errors.Wrapf(err, "file %q", opts.Filenames[i]))
		}
	}

	for i, f := range inputs {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return Result{}, exitcode.Wrap(exitcode.Environmental, errors.Wrap(err, "seek error in input file"))
		}
		res, err := opts.Decode(f, isize)
		if err != nil {
			return Result{}, err
		}
		if res.Success {
			return Result{NotNeeded: true, Which: opts.Filenames[i]}, nil
		}
	}

	out, err := ioutil.CreateOutput(opts.Output, opts.Force)
	if err != nil {
		return Result{}, exitcode.Wrap(exitcode.Environmental, err)
	}

	// fail closes out (ignoring the close error, since a failure is
	// already in flight) before returning a coded error. The output
	// file itself is only unlinked on the "areas overlap" failure path
	// below, matching the original: the other failure branches below
	// leave a partial (identical-to-source-0) output file in place.
	fail := func(code int, err error) (Result, error) {
		out.Close()
		return Result{}, exitcode.Wrap(code, err)
	}

	for _, f := range inputs {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return fail(exitcode.Environmental, errors.Wrap(err, "seek error in input file"))
		}
	}

	sources := make([]io.Reader, len(inputs))
	for i, f := range inputs {
		sources[i] = f
	}
	blocks, err := diffscan.Scan(sources, out)
	if err != nil {
		return fail(exitcode.Environmental, err)
	}

	if len(blocks) == 0 {
		return fail(exitcode.Environmental, errors.New("input files are identical; recovery is not possible"))
	}

	singleBlock := len(blocks) == 1
	if singleBlock && blocks[0].Size < 2 {
		return fail(exitcode.Environmental,
			errors.New("input files have the same byte damaged; try repairing one of them"))
	}

	n := int64(len(opts.Filenames))
	k := int64(len(blocks))
	if saturatingPow(n, k) >= int32Max ||
		(singleBlock && saturatingPow(n, 2) >= int32Max/blocks[0].Size) {
		return fail(exitcode.Environmental, errors.New("input files are too damaged; recovery is not possible"))
	}

	var shifts int64 = 1
	if singleBlock {
		shifts = blocks[0].Size - 1
		tail := block.Block{Pos: blocks[0].Pos + 1, Size: blocks[0].Size - 1}
		blocks[0].Size = 1
		blocks = append(blocks, tail)
	}

	baseVariations := saturatingPow(n, int64(len(blocks)))
	variations := baseVariations*shifts - 2

	done := false
	for v := int64(1); v <= variations; v++ {
		opts.progress("Trying variation %d of %d", v, variations)

		tmp := v
		for i := range blocks {
			digit := tmp % n
			tmp /= n
			in := inputs[digit]
			if _, err := in.Seek(blocks[i].Pos, io.SeekStart); err != nil {
				return fail(exitcode.Environmental, errors.Wrap(err, "seek error in input file"))
			}
			if _, err := out.Seek(blocks[i].Pos, io.SeekStart); err != nil {
				return fail(exitcode.Environmental, errors.Wrap(err, "seek error in output file"))
			}
			if err := ioutil.CopyN(out, in, blocks[i].Size); err != nil {
				return fail(exitcode.Environmental, errors.Wrap(err, "error copying to output file"))
			}
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
			done = true
			break
		}
		if v%baseVariations == 0 {
			block.Shift(&blocks[0], &blocks[1])
		}
	}

	if done {
		if err := out.Close(); err != nil {
			return Result{}, exitcode.Wrap(exitcode.Environmental, errors.Wrap(err, "error closing output file"))
		}
		return Result{}, nil
	}
	out.Close()
	os.Remove(opts.Output)
	return Result{}, exitcode.Wrap(exitcode.Corrupt, errors.New("some error areas overlap; can't recover input file"))
}

func closeAll(files []*os.File) {
	for _, f := range files {
		if f != nil {
			f.Close()
		}
	}
}

// saturatingPow computes base^exponent, saturating to int32Max instead of
// overflowing, mirroring the original implementation's ipow helper.
func saturatingPow(base, exponent int64) int64 {
	result := int64(1)
	for i := int64(0); i < exponent; i++ {
		if int32Max/base >= result {
			result *= base
		} else {
			return int32Max
		}
	}
	return result
}
