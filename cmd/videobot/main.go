// If you are AI: This is the main entrypoint for the videobot process: one bus video source, an optional analysis bot, and a bus message sink.

package main

import (
	"flag"
	"fmt"
	"os"

	"nonchalant/internal/bot"
	"nonchalant/internal/config"
	"nonchalant/internal/logging"
	"nonchalant/internal/metrics"
	"nonchalant/internal/server"
)

// main loads configuration, builds the pipeline, and blocks until the
// pipeline completes (on a terminating signal or a fatal stream error),
// then shuts the process down. A ContractViolation panic raised on this
// goroutine (for example while building the server) is recovered here
// and turned into exit code 1. One raised while the pipeline runs happens
// on the goroutine server.New starts for it; it is not recovered and
// ends the process through Go's default panic handling (non-zero exit,
// stack trace on stderr).
func main() {
	os.Exit(run())
}

// run is main's body, factored out so deferred recovery can still set a
// process exit code.
func run() (code int) {
	configPath := flag.String("config", "configs/videobot.example.yaml", "path to configuration file")
	logLevel := flag.String("log-level", "", "override the configured log level (e.g. debug, info, warn)")
	flag.Parse()

	log := logging.For("main")

	defer func() {
		if r := recover(); r != nil {
			if cv, ok := r.(bot.ContractViolation); ok {
				log.WithField("reason", cv.Reason).Error("contract violation, aborting")
				code = 1
				return
			}
			panic(r)
		}
	}()

	if *logLevel != "" {
		if err := logging.SetLevel(*logLevel); err != nil {
			fmt.Fprintf(os.Stderr, "invalid --log-level: %v\n", err)
			return 1
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load config")
		return 1
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("invalid config")
		return 1
	}

	m := metrics.New()

	srv, err := server.New(cfg, m)
	if err != nil {
		log.WithError(err).Error("failed to build server")
		return 1
	}

	runErr := srv.Run()
	shutdownErr := srv.Shutdown()

	if runErr != nil {
		log.WithError(runErr).Error("pipeline ended with an error")
		return 1
	}
	if shutdownErr != nil {
		log.WithError(shutdownErr).Error("shutdown error")
		return 1
	}

	log.Info("shut down cleanly")
	return 0
}
