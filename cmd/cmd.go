package cmd

import (
	"github.com/urfave/cli/v2"
)

const VERSION = "v1.0.0"

var App = &cli.App{
	Name:    "firewall",
	Usage:   "host-based IP packet filter",
	Version: VERSION,
	Commands: []*cli.Command{
		{
			Name:  "run",
			Usage: "start the firewall",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "rules",
					Usage: "firewall rules file path",
				},
				&cli.StringFlag{
					Name:  "config",
					Usage: "runtime settings file path",
				},
			},
			Action: run,
		},
	},
}
