// Package locator resolves the two physical serial ports the engine
// bridges by USB serial-number prefix, for setups where port paths
// (/dev/ttyUSB0, /dev/ttyUSB1) are not stable across reboots or hotplug
// order. Which resolved port ends up "heater-side" is still decided later,
// by observed traffic (internal/router) — this package only finds device
// paths.
package locator

import (
	"fmt"
	"sort"

	"go.bug.st/serial/enumerator"
)

// ErrNotEnoughPorts is returned when fewer than two matching ports are found.
type ErrNotEnoughPorts struct {
	Prefix string
	Found  int
}

func (e *ErrNotEnoughPorts) Error() string {
	return fmt.Sprintf("locator: found %d port(s) with serial number prefix %q, need 2", e.Found, e.Prefix)
}

// FindPair returns the device paths of the two USB serial ports whose
// serial number starts with prefix, sorted by path for a deterministic
// (if arbitrary) order. Role assignment between the two is never decided
// here.
func FindPair(prefix string) (string, string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", "", fmt.Errorf("locator: list ports: %w", err)
	}

	var matches []string
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if p.SerialNumber == "" {
			continue
		}
		if len(p.SerialNumber) >= len(prefix) && p.SerialNumber[:len(prefix)] == prefix {
			matches = append(matches, p.Name)
		}
	}
	sort.Strings(matches)

	if len(matches) < 2 {
		return "", "", &ErrNotEnoughPorts{Prefix: prefix, Found: len(matches)}
	}
	return matches[0], matches[1], nil
}
