package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prclm/autoterm-passthrough/internal/config"
	"github.com/prclm/autoterm-passthrough/internal/engine"
	"github.com/prclm/autoterm-passthrough/internal/locator"
	"github.com/prclm/autoterm-passthrough/internal/transport"
)

func main() {
	cfg := config.RegisterFlags(flag.CommandLine, config.Default())
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logOut, err := openLogSink(cfg.LogPath)
	if err != nil {
		log.Fatalf("failed to open log sink: %v", err)
	}
	logger := engine.NewLogger(logOut)

	eng := engine.New(engineConfig(*cfg), logger, openerFor(*cfg))
	eng.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	eng.Stop()
}

func openLogSink(path string) (io.Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func engineConfig(cfg config.Config) engine.Config {
	ec := engine.DefaultConfig()
	ec.StatusPeriod = cfg.StatusPeriod
	ec.SettingsPeriod = cfg.SettingsPeriod
	ec.ShutdownPeriod = cfg.ShutdownPeriod
	ec.WriteLockHold = cfg.WriteLockHold
	return ec
}

func openerFor(cfg config.Config) engine.Opener {
	return func() (transport.Duplex, transport.Duplex, error) {
		port1, baud1, port2, baud2 := cfg.SerialPort1, cfg.BaudRate1, cfg.SerialPort2, cfg.BaudRate2

		if cfg.SerialNumber != "" {
			p1, p2, err := locator.FindPair(cfg.SerialNumber)
			if err != nil {
				return nil, nil, err
			}
			port1, port2 = p1, p2
		}

		a, err := transport.OpenSerial(port1, baud1)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", port1, err)
		}
		b, err := transport.OpenSerial(port2, baud2)
		if err != nil {
			a.Close()
			return nil, nil, fmt.Errorf("open %s: %w", port2, err)
		}
		return a, b, nil
	}
}
