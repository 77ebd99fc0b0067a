package main

import (
	"log"
	"os"

	"github.com/trezcool/shule/core"
	logsvc "github.com/trezcool/shule/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewConsoleLogger(log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds), conf.Debug)

	// start CLI
	cli := commandLine{
		conf:   conf,
		logger: logger,
		out:    os.Stdout,
	}
	err := cli.run(os.Args)
	cli.close()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
