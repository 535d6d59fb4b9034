package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"github.com/crazy-max/lziprecover-go/internal/app"
	"github.com/crazy-max/lziprecover-go/internal/exitcode"
	"github.com/crazy-max/lziprecover-go/internal/logging"
	"github.com/crazy-max/lziprecover-go/pkg/config"
)

var (
	cli     config.Cli
	version = "dev"
	meta    = config.Meta{
		ID:     "lziprecover",
		Name:   "Lziprecover",
		Desc:   "Recover data from damaged lzip (.lz) files",
		URL:    "https://github.com/crazy-max/lziprecover-go",
		Author: "CrazyMax",
	}
)

// versionNotice is what -V/--version prints: program name and version
// followed by the same license/warranty lines the original lziprecover's
// show_version prints, bundled into kong's "version" var so the built-in
// kong.VersionFlag hook can print it verbatim.
func versionNotice() string {
	return fmt.Sprintf("%s %s\n", meta.Name, version) +
		"License GPLv3+: GNU GPL version 3 or later <http://gnu.org/licenses/gpl.html>\n" +
		"This is free software: you are free to change and redistribute it.\n" +
		"There is NO WARRANTY, to the extent permitted by law."
}

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())
	meta.Version = version

	kong.Parse(&cli,
		kong.Name(meta.ID),
		kong.Description(fmt.Sprintf("%s. More info: %s", meta.Desc, meta.URL)),
		kong.UsageOnError(),
		kong.Vars{
			"version": versionNotice(),
		},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	logging.Configure(cli.Verbosity())

	recoverer, err := app.New(meta, cli)
	if err != nil {
		log.Error().Msg(err.Error())
		os.Exit(exitcode.CodeOf(err))
	}

	if err := recoverer.Run(); err != nil {
		log.Error().Msg(err.Error())
		os.Exit(exitcode.CodeOf(err))
	}
}
