// Command reefsd runs the FTP server described by a configuration file.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	ftpserver "github.com/reefs-ftp/reefs"
	"github.com/reefs-ftp/reefs/config"
	"github.com/reefs-ftp/reefs/driver"
	"github.com/reefs-ftp/reefs/log/gokit"
)

const defaultConfigPath = "./config"

func main() {
	os.Exit(run())
}

// run returns the process exit code: 0 for a normal SIGINT-triggered
// shutdown, non-zero for any initialisation failure.
//
// A single optional positional argument doesn't justify the flag package.
func run() int {
	configPath, ok := parseArgs(os.Args[1:])
	if !ok {
		fmt.Fprintln(os.Stderr, "usage: reefsd [config-file]")

		return 1
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reefsd: could not load config: %v\n", err)

		return 1
	}

	users, err := config.LoadUsers(cfg.UsersFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reefsd: could not load users file: %v\n", err)

		return 1
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reefsd: could not open log file: %v\n", err)

		return 1
	}
	defer logFile.Close()

	logger := gokit.NewGKLoggerFile(logFile)

	// SIGPIPE must be ignored process-wide: a client resetting its data
	// connection must surface as an error on the write syscall (handled as
	// a transient-I/O tier-2 error), not terminate the process.
	signal.Ignore(syscall.SIGPIPE)

	var shuttingDown atomic.Bool

	d := driver.New(cfg, users, logger.With("component", "driver"))

	server := ftpserver.NewFtpServer(d, &shuttingDown)
	server.Logger = logger.With("component", "server")

	if err := server.Listen(); err != nil {
		fmt.Fprintf(os.Stderr, "reefsd: could not listen: %v\n", err)

		return 1
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve() }()

	select {
	case <-sigCh:
		logger.Info("received SIGINT, shutting down")
		shuttingDown.Store(true)

		if err := server.Stop(); err != nil {
			logger.Error("error while stopping", "err", err)
		}

		<-serveErr

		return 0
	case err := <-serveErr:
		if err != nil {
			logger.Error("server stopped unexpectedly", "err", err)

			return 1
		}

		return 0
	}
}

// parseArgs validates the CLI's zero-or-one positional argument.
func parseArgs(args []string) (string, bool) {
	switch len(args) {
	case 0:
		return defaultConfigPath, true
	case 1:
		return args[0], true
	default:
		return "", false
	}
}
