package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"hacktaika/internal/app"
	"hacktaika/internal/config"
)

// The webhook listener only sends, so it never competes with the bot
// process for getUpdates.
func main() {
	var cfgPath, envPath string
	flag.StringVar(&cfgPath, "config", "", "path to config file (json or yaml); env only when empty")
	flag.StringVar(&envPath, "env", ".env", "dotenv file loaded before the environment is read")
	flag.Parse()

	if err := config.LoadDotEnv(envPath); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, cfgPath, config.RoleWebhook); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}
