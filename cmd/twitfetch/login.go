package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"twitfetch/pkg/log"
)

func newLoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "check that the configured credentials can sign in",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "overrides TWITFETCH_USERNAME"},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "overrides TWITFETCH_PASSWORD"},
		},
		Action: func(c *cli.Context) error {
			rt, err := setup(c, nil)
			if err != nil {
				return err
			}
			defer rt.close()

			username, password := rt.cfg.Credentials.Username, rt.cfg.Credentials.Password
			if c.IsSet("username") {
				username = c.String("username")
			}
			if c.IsSet("password") {
				password = c.String("password")
			}

			ctx, cancel := signalContext(c.Context)
			defer cancel()

			if err := rt.engine.Fetch.Login(log.WithRunID(ctx), username, password); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "signed in as %s\n", username)
			return nil
		},
	}
}
