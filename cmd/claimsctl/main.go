package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/claimkeeper/internal/console"
	"github.com/dmitrijs2005/claimkeeper/internal/server"
	"github.com/dmitrijs2005/claimkeeper/internal/server/config"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	c := console.New(app.Claims, app.Query, app.Registry(), app.Logger(), os.Stdin, os.Stdout, console.IsInteractive(os.Stdin))
	if err := c.Run(ctx); err != nil {
		app.Logger().Error(ctx, "console stopped", "error", err)
	}
}
