package main

import (
	"fmt"
	"os"

	"github.com/timmy/figureimg/internal/cli"
	"github.com/timmy/figureimg/internal/logger"
)

func main() {
	logger.SetDefaultLogger(logger.New(logger.TerminalConfig("figurectl")))

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
