package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsprime0-ui/prime-downloader-backend/internal"
)

// main is the entry point to the program: it loads the user config
// from file (falling back to environment-only configuration when no
// file is present) and runs the backend until interrupted.
func main() {
	configPath := flag.String("config", "prime.yaml", "path to the YAML configuration file")
	flag.Parse()

	config := internal.PrimeConfig{}
	if _, err := os.Stat(*configPath); err == nil {
		if err := config.LoadFromFile(*configPath); err != nil {
			log.Panicf("Failed to initialise backend - %v\n", err.Error())
		}
	} else if err := config.LoadFromEnv(); err != nil {
		log.Panicf("Failed to initialise backend - %v\n", err.Error())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := internal.New(config).Run(ctx); err != nil {
		log.Panicf("Backend stopped with error - %v\n", err.Error())
	}
}
