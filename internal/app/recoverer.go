// Package app wires the CLI surface (spec §6) to the three recovery
// engines, resolving mode selection, default output naming, and the
// error-to-exit-code mapping the original lziprecover also implements.
package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sirupsen/logrus"

	"github.com/crazy-max/lziprecover-go/internal/exitcode"
	"github.com/crazy-max/lziprecover-go/internal/oracle"
	"github.com/crazy-max/lziprecover-go/internal/recover/merge"
	"github.com/crazy-max/lziprecover-go/internal/recover/repair"
	"github.com/crazy-max/lziprecover-go/internal/recover/split"
	"github.com/crazy-max/lziprecover-go/pkg/config"
)

// Recoverer dispatches a parsed CLI invocation to the merge, repair or
// split engine.
type Recoverer struct {
	meta config.Meta
	cli  config.Cli
}

// New creates a Recoverer from the parsed CLI flags.
func New(meta config.Meta, cli config.Cli) (*Recoverer, error) {
	selected := 0
	for _, b := range []bool{cli.Merge, cli.Repair, cli.Split} {
		if b {
			selected++
		}
	}
	if selected != 1 {
		return nil, exitcode.Wrap(exitcode.Environmental,
			errors.New("exactly one of --merge, --repair or --split must be given"))
	}
	return &Recoverer{meta: meta, cli: cli}, nil
}

// Run executes the selected engine and returns an error carrying the
// exit code the caller should use, per spec §7.
func (r *Recoverer) Run() error {
	verbosity := r.cli.Verbosity()
	progress := func(format string, args ...interface{}) {
		fmt.Fprintf(os.Stdout, "\r"+format, args...)
	}

	switch {
	case r.cli.Merge:
		return r.runMerge(verbosity, progress)
	case r.cli.Repair:
		return r.runRepair(verbosity, progress)
	case r.cli.Split:
		return r.runSplit(verbosity, progress)
	default:
		return exitcode.Wrap(exitcode.Internal, errors.New("no recovery mode selected"))
	}
}

func (r *Recoverer) runMerge(verbosity int, progress func(string, ...interface{})) error {
	if len(r.cli.Files) < 2 {
		return exitcode.Wrap(exitcode.Environmental, errors.New("you must specify at least 2 files"))
	}
	output := r.cli.Output
	if output == "" {
		output = insertFixed(r.cli.Files[0])
	}

	res, err := merge.Run(merge.Options{
		Filenames: r.cli.Files,
		Output:    output,
		Force:     r.cli.Force,
		Verbosity: verbosity,
		Decode:    withOOMDiagnostic(oracle.TryDecode),
		Progress:  progress,
	})
	if err != nil {
		return err
	}
	if res.NotNeeded && verbosity >= 1 {
		log.Info().Msgf("File %q has no errors. Recovery is not needed.", res.Which)
	}
	return nil
}

func (r *Recoverer) runRepair(verbosity int, progress func(string, ...interface{})) error {
	if len(r.cli.Files) != 1 {
		return exitcode.Wrap(exitcode.Environmental, errors.New("you must specify exactly 1 file"))
	}
	output := r.cli.Output
	if output == "" {
		output = insertFixed(r.cli.Files[0])
	}

	res, err := repair.Run(repair.Options{
		Filename:  r.cli.Files[0],
		Output:    output,
		Force:     r.cli.Force,
		Verbosity: verbosity,
		Decode:    withOOMDiagnostic(oracle.TryDecode),
		Progress:  progress,
	})
	if err != nil {
		return err
	}
	if res.NotNeeded && verbosity >= 1 {
		log.Info().Msg("Input file has no errors. Recovery is not needed.")
	}
	return nil
}

func (r *Recoverer) runSplit(verbosity int, progress func(string, ...interface{})) error {
	if len(r.cli.Files) != 1 {
		return exitcode.Wrap(exitcode.Environmental, errors.New("you must specify exactly 1 file"))
	}
	suffix := r.cli.Output
	if suffix == "" {
		suffix = r.cli.Files[0]
	}

	return split.Run(split.Options{
		Filename:  r.cli.Files[0],
		Suffix:    suffix,
		Force:     r.cli.Force,
		Verbosity: verbosity,
		Progress:  progress,
	})
}

// insertFixed synthesizes the default output path by inserting "_fixed"
// before the input's ".lz"/".tlz" suffix, or appending "_fixed.lz" when
// neither is present, matching the original's insert_fixed.
func insertFixed(name string) string {
	if strings.HasSuffix(name, ".tlz") {
		base := name[:len(name)-4]
		return base + "_fixed.tlz"
	}
	if strings.HasSuffix(name, ".lz") {
		base := name[:len(name)-3]
		return base + "_fixed.lz"
	}
	return name + "_fixed.lz"
}

// withOOMDiagnostic wraps an oracle decoder so an out-of-memory signal is
// also reported through logrus, exercising the logrus-to-zerolog bridge
// for this one diagnostic category (spec §4.1, §7's "Out of memory"
// taxonomy entry) before the error propagates to the caller.
func withOOMDiagnostic(decode func(r io.ReadSeeker, length int64) (oracle.Result, error)) func(io.ReadSeeker, int64) (oracle.Result, error) {
	return func(r io.ReadSeeker, length int64) (oracle.Result, error) {
		res, err := decode(r, length)
		if errors.Is(err, oracle.ErrOutOfMemory) {
			logrus.WithField("component", "oracle").Error(err.Error())
		}
		return res, err
	}
}
