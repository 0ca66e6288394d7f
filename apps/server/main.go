package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version     kong.VersionFlag `short:"v" help:"Show version"`
	Serve       ServeCmd         `cmd:"" default:"withargs" help:"Run the table server"`
	CheckConfig CheckConfigCmd   `cmd:"check-config" help:"Parse and validate the configuration, then exit"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("holdem-live"),
		kong.Description("Live multiplayer Hold'em and Omaha table server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
