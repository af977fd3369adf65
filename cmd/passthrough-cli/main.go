// Command passthrough-cli is an interactive REPL for exercising the Host
// API against a running pair of serial ports, mirroring the command
// vocabulary of the vendor's own example script.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

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

	ec := engine.DefaultConfig()
	ec.StatusPeriod = cfg.StatusPeriod
	ec.SettingsPeriod = cfg.SettingsPeriod
	ec.ShutdownPeriod = cfg.ShutdownPeriod
	ec.WriteLockHold = cfg.WriteLockHold
	eng := engine.New(ec, logger, open)
	eng.Start()
	defer eng.Stop()

	fmt.Println("connection with heater successfully initialized.")
	repl(eng)
}

func repl(eng *engine.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("enter your request: ")
		if !scanner.Scan() {
			return
		}
		dispatch(eng, strings.TrimSpace(scanner.Text()))
	}
}

func dispatch(eng *engine.Engine, request string) {
	fields := strings.Fields(request)
	if len(fields) == 0 {
		return
	}
	cmd := fields[0]

	switch {
	case cmd == "ast":
		eng.AsksForStatus()
	case cmd == "ase":
		eng.AsksForSettings()
	case cmd == "asv":
		eng.AsksForSoftwareVersion()
	case strings.Contains(request, "rpt"):
		if v, ok := intArg(fields, 1); ok {
			eng.ReportControllerTemperature(uint8(v))
		}
	case cmd == "hst":
		fmt.Println(eng.GetHeaterStatusText())
	case cmd == "snap":
		printSnapshot(eng)
	case strings.Contains(request, "vent_on"):
		if v, ok := intArg(fields, len(fields)-1); ok {
			eng.TurnOnVentilation(uint8(v), nil)
		}
	case strings.Contains(request, "heat_on"):
		if v, ok := intArg(fields, 1); ok {
			eng.TurnOnHeater(4, 0x0F, 0, uint8(v), nil)
		}
	case strings.Contains(request, "heat_set"):
		if v, ok := intArg(fields, 1); ok {
			eng.ChangeSettings(4, 0x0F, 0, uint8(v), nil)
		}
	case cmd != "diag_off" && strings.Contains(request, "off"):
		eng.Shutdown()
	case cmd == "diag_on":
		eng.DiagnosticOn()
	case cmd == "diag_off":
		eng.DiagnosticOff()
	case cmd == "unblock":
		eng.Unblock()
	case cmd == "timer":
		if v, ok := intArg(fields, 1); ok {
			eng.SetHeaterTimer(v)
		}
	case cmd == "gettimer":
		if d, armed := eng.GetHeaterTimer(); armed {
			fmt.Println(d.Format(time.RFC3339))
		} else {
			fmt.Println("not armed")
		}
	default:
		fmt.Println("unknown request!")
	}
}

func intArg(fields []string, i int) (int, bool) {
	if i < 0 || i >= len(fields) {
		return 0, false
	}
	v, err := strconv.Atoi(fields[i])
	if err != nil {
		return 0, false
	}
	return v, true
}

func printSnapshot(eng *engine.Engine) {
	snap := eng.Snapshot()
	fmt.Printf("mode=%v setpoint=%v ventilation=%v power=%v\n",
		snap.Mode, snap.Setpoint, snap.Ventilation, snap.PowerLevel)
	fmt.Printf("status1=%v heater_temp=%v external_temp=%v battery=%v\n",
		snap.Status1, snap.HeaterTemperature, snap.ExternalTemperature, snap.BatteryVoltage)
}
