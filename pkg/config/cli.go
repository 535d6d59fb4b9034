package config

import "github.com/alecthomas/kong"

// Cli holds every flag and positional argument lziprecover accepts (spec
// §6). Mode selection (-m/-R/-s) and verbosity combination (-q vs -v) are
// validated and resolved by the caller, not by kong itself.
type Cli struct {
	Version kong.VersionFlag `kong:"short='V',help='Print version information and quit.'"`

	Force bool `kong:"short='f',name=force,help='Overwrite existing output files.'"`

	Merge  bool `kong:"short='m',name=merge,help='Merge 2 or more copies of a file and try to produce a correct one.'"`
	Repair bool `kong:"short='R',name=repair,help='Try to repair a small error in a 1-byte damaged member.'"`
	Split  bool `kong:"short='s',name=split,help='Split multimember file into members.'"`

	Output string `kong:"short='o',name=output,type=path,help='Output file (or base name for split).'"`

	Quiet   bool `kong:"short='q',name=quiet,help='Quiet operation; suppress all diagnostics.'"`
	Verbose int  `kong:"short='v',name=verbose,type=counter,help='Increase verbosity (up to 4 times).'"`

	Files []string `kong:"arg,optional,name=file,help='Input file(s).'"`
}

// Verbosity resolves -q/-v into the single signed verbosity level the
// recovery engines and the logger take, per spec §6: -1 when --quiet,
// else --verbose capped at 4.
func (c Cli) Verbosity() int {
	if c.Quiet {
		return -1
	}
	if c.Verbose > 4 {
		return 4
	}
	return c.Verbose
}

// Meta carries the program identity used for help text, the version
// banner, and the default kong configuration.
type Meta struct {
	ID      string
	Name    string
	Desc    string
	URL     string
	Author  string
	Version string
}
