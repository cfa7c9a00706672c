package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"study_dashboard/internal/cli"
	"study_dashboard/internal/client"
	"study_dashboard/internal/logger"
	"study_dashboard/internal/session"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}

	log := logger.New(os.Stderr, cfg.LogLevel, "console")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sess := session.Init(session.NewFileStore(cfg.SessionFile))
	app := cli.NewApp(client.New(cfg.APIURL), sess, os.Stdout, &log, cli.TerminalPassword)

	return app.Run(ctx, args)
}
