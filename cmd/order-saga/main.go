package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:    "order-saga",
		Usage:   "Order fulfillment saga: intake, invoice, payment, shipment and notification",
		Version: "1.0.0",
		Commands: []*cli.Command{
			{
				Name:  "intake",
				Usage: "Start the order intake HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runIntake(ctx)
				},
			},
			{
				Name:  "stage",
				Usage: "Consume events for one saga stage",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Required: true,
						Usage:    "Stage to run (invoice, payment, shipment or notification)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStage(ctx, cmd.String("name"))
				},
			},
			{
				Name:  "run-all",
				Usage: "Run intake and every stage in one process",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runAll(ctx)
				},
			},
			{
				Name:  "migrate",
				Usage: "Apply the PostgreSQL record store schema",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runMigrations()
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
