package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/flowtrade/portal/cmd/app/commands"
	"github.com/flowtrade/portal/internal/app"
	"github.com/flowtrade/portal/internal/config"
)

func getPortalCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "issue-portal-token",
			Usage: "Issue a portal token granting a customer access to one resource",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "type",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Token type: quote, invoice, job or dashboard",
				},
				&cli.StringFlag{
					Name:    "resource-id",
					Aliases: []string{"r"},
					Usage:   "Resource ID (UUID), required for quote, invoice and job tokens",
				},
				&cli.StringFlag{
					Name:     "customer-id",
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "Customer ID (UUID)",
				},
				&cli.StringFlag{
					Name:     "org-id",
					Aliases:  []string{"o"},
					Required: true,
					Usage:    "Organisation ID (UUID)",
				},
				&cli.IntFlag{
					Name:  "ttl-hours",
					Value: 0,
					Usage: "Token lifetime in hours (0 uses PORTAL_TOKEN_TTL_HOURS)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				tokenUseCase, err := container.TokenUseCase()
				if err != nil {
					return err
				}

				return commands.RunIssuePortalToken(
					ctx,
					tokenUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					commands.IssuePortalTokenParams{
						TokenType:  cmd.String("type"),
						ResourceID: cmd.String("resource-id"),
						CustomerID: cmd.String("customer-id"),
						OrgID:      cmd.String("org-id"),
						TTLHours:   int(cmd.Int("ttl-hours")),
					},
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "revoke-portal-token",
			Usage: "Revoke a portal token so it can no longer be used",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Token ID (UUID)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				tokenUseCase, err := container.TokenUseCase()
				if err != nil {
					return err
				}

				return commands.RunRevokePortalToken(
					ctx,
					tokenUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("format"),
				)
			},
		},
	}
}
