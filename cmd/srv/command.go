package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the TOML configuration file",
		EnvVars: []string{"CONFIG_FILE"},
	}

	s.app = cli.NewApp()
	s.app.Action = cli.ShowAppHelp
	s.app.Name = "matchpoll"
	s.app.Usage = "Fixture prediction votes"
	s.app.Commands = []*cli.Command{
		{
			Action: s.startApi,
			Name:   "api",
			Usage:  "Start service api",
			Flags: []cli.Flag{
				configFlag,
				&cli.BoolFlag{
					Name:  "auto-migrate",
					Usage: "Create or update the tables from the entities before serving",
				},
			},
			Category:    "Api",
			Description: `Used for start service api, it serves the vote, tally and admin apis.`,
		},
		{
			Action: s.startMigrate,
			Name:   "migrate",
			Usage:  "Migrate the database",
			Flags: []cli.Flag{
				configFlag,
				&cli.IntFlag{
					Name:  "rollback",
					Usage: "Revert the given number of migrations instead of migrating up",
				},
			},
			Category:    "Database",
			Description: `Used to apply the SQL migrations and seed the default categories.`,
		},
	}
}
