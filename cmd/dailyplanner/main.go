package main

import (
	"os"

	"dailyplanner/internal/cli"
	appLog "dailyplanner/internal/log"
)

func main() {
	if err := cli.NewApp().Execute(); err != nil {
		appLog.Error("dailyplanner failed", err)
		os.Exit(1)
	}
}
