// Command redisbridge runs the passthrough engine and mirrors its state
// snapshots into Redis on a fixed interval, for dashboards or other
// processes that want read-only visibility into heater state without
// linking against the engine package directly.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prclm/autoterm-passthrough/internal/config"
	"github.com/prclm/autoterm-passthrough/internal/engine"
	"github.com/prclm/autoterm-passthrough/internal/locator"
	"github.com/prclm/autoterm-passthrough/internal/redisbridge"
	"github.com/prclm/autoterm-passthrough/internal/transport"
)

func main() {
	cfg := config.RegisterFlags(flag.CommandLine, config.Default())
	pollInterval := flag.Duration("bridge-interval", time.Second, "how often to mirror state into Redis")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := engine.NewLogger(os.Stderr)
	open := func() (transport.Duplex, transport.Duplex, error) {
		port1, port2 := cfg.SerialPort1, cfg.SerialPort2
		if cfg.SerialNumber != "" {
			p1, p2, err := locator.FindPair(cfg.SerialNumber)
			if err != nil {
				return nil, nil, err
			}
			port1, port2 = p1, p2
		}
		a, err := transport.OpenSerial(port1, cfg.BaudRate1)
		if err != nil {
			return nil, nil, err
		}
		b, err := transport.OpenSerial(port2, cfg.BaudRate2)
		if err != nil {
			a.Close()
			return nil, nil, err
		}
		return a, b, nil
	}

	eng := engine.New(engineConfig(*cfg), logger, open)
	eng.Start()
	defer eng.Stop()

	rdb, err := redisbridge.Dial(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	stop := make(chan struct{})
	go mirrorLoop(eng, rdb, *pollInterval, stop)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	close(stop)
}

func mirrorLoop(eng *engine.Engine, rdb *redisbridge.Client, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := rdb.PublishSnapshot(eng.Snapshot()); err != nil {
				log.Printf("failed to publish snapshot: %v", err)
			}
		}
	}
}

func engineConfig(cfg config.Config) engine.Config {
	ec := engine.DefaultConfig()
	ec.StatusPeriod = cfg.StatusPeriod
	ec.SettingsPeriod = cfg.SettingsPeriod
	ec.ShutdownPeriod = cfg.ShutdownPeriod
	ec.WriteLockHold = cfg.WriteLockHold
	return ec
}
