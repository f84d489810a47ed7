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

func main() {
	var cfgPath, envPath, roleName string
	flag.StringVar(&cfgPath, "config", "", "path to config file (json or yaml); env only when empty")
	flag.StringVar(&envPath, "env", ".env", "dotenv file loaded before the environment is read")
	flag.StringVar(&roleName, "role", string(config.RoleBot), "components to run: bot, webhook or all")
	flag.Parse()

	role, err := config.ParseRole(roleName)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(2)
	}
	if err := config.LoadDotEnv(envPath); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, cfgPath, role); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}
