// Package flags holds the CLI app constructor and flag categories shared
// by the commands.
package flags

import (
	"github.com/urfave/cli/v2"

	"github.com/tos-network/ctoken/params"
)

// NewApp creates an app with sane defaults.
func NewApp(gitCommit, gitDate, usage string) *cli.App {
	app := cli.NewApp()
	app.EnableBashCompletion = true
	app.Version = params.VersionWithCommit(gitCommit, gitDate)
	app.Usage = usage
	app.HideVersion = false
	return app
}

// Merge concatenates flag slices.
func Merge(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, group := range groups {
		out = append(out, group...)
	}
	return out
}
