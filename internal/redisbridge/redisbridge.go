// Package redisbridge mirrors Host API snapshots outward into Redis. It is
// a read-only, supplemental collaborator: it never feeds anything back into
// the engine and never persists engine state across its own restarts, it
// only republishes the engine's current in-memory view for other processes
// to observe.
package redisbridge

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prclm/autoterm-passthrough/internal/state"
)

// Keys used for the hash this bridge writes.
const (
	KeySettings   = "autoterm:settings"
	KeyStatus     = "autoterm:status"
	KeyController = "autoterm:controller"
	KeyDiag       = "autoterm:diagnostic"
	ChannelStatus = "autoterm:status"
)

// Client wraps a go-redis client with the hash/pub-sub writes this bridge
// needs, mirroring the connect/HSet/Publish shape of a typical Redis state
// mirror.
type Client struct {
	rdb *redis.Client
	ctx context.Context
}

// Dial connects to addr and verifies it with a ping.
func Dial(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redisbridge: connect: %w", err)
	}
	return &Client{rdb: rdb, ctx: ctx}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// PublishSnapshot writes every register in snap into its hash and publishes
// a single status-changed notification on ChannelStatus.
func (c *Client) PublishSnapshot(snap state.Snapshot) error {
	pipe := c.rdb.Pipeline()

	writeValue(pipe, c.ctx, KeySettings, "mode", snap.Mode)
	writeValue(pipe, c.ctx, KeySettings, "setpoint", snap.Setpoint)
	writeValue(pipe, c.ctx, KeySettings, "ventilation", snap.Ventilation)
	writeValue(pipe, c.ctx, KeySettings, "power_level", snap.PowerLevel)

	writeValue(pipe, c.ctx, KeyStatus, "status1", snap.Status1)
	writeValue(pipe, c.ctx, KeyStatus, "status2", snap.Status2)
	writeValue(pipe, c.ctx, KeyStatus, "errors", snap.Errors)
	writeValue(pipe, c.ctx, KeyStatus, "heater_temperature", snap.HeaterTemperature)
	writeValue(pipe, c.ctx, KeyStatus, "external_temperature", snap.ExternalTemperature)
	writeValue(pipe, c.ctx, KeyStatus, "battery_voltage", snap.BatteryVoltage)
	writeValue(pipe, c.ctx, KeyStatus, "flame_temperature", snap.FlameTemperature)
	writeValue(pipe, c.ctx, KeyStatus, "status_text", textValue(snap.Status1))
	writeValue(pipe, c.ctx, KeyStatus, "software_version", snap.HeaterSoftwareVersion)

	writeValue(pipe, c.ctx, KeyController, "temperature", snap.ControllerTemperature)

	writeValue(pipe, c.ctx, KeyDiag, "status1", snap.DStatus1)
	writeValue(pipe, c.ctx, KeyDiag, "status2", snap.DStatus2)
	writeValue(pipe, c.ctx, KeyDiag, "counter1", snap.DCounter1)
	writeValue(pipe, c.ctx, KeyDiag, "counter2", snap.DCounter2)
	writeValue(pipe, c.ctx, KeyDiag, "defined_rev", snap.DDefinedRev)
	writeValue(pipe, c.ctx, KeyDiag, "measured_rev", snap.DMeasuredRev)
	writeValue(pipe, c.ctx, KeyDiag, "fuel_pump1", snap.DFuelPump1)
	writeValue(pipe, c.ctx, KeyDiag, "fuel_pump2", snap.DFuelPump2)
	writeValue(pipe, c.ctx, KeyDiag, "chamber_temperature", snap.DChamberTemperature)
	writeValue(pipe, c.ctx, KeyDiag, "flame_temperature", snap.DFlameTemperature)
	writeValue(pipe, c.ctx, KeyDiag, "external_temperature", snap.DExternalTemperature)
	writeValue(pipe, c.ctx, KeyDiag, "heater_temperature", snap.DHeaterTemperature)
	writeValue(pipe, c.ctx, KeyDiag, "battery_voltage", snap.DBatteryVoltage)

	pipe.Publish(c.ctx, ChannelStatus, fmt.Sprintf("updated:%d", time.Now().Unix()))

	_, err := pipe.Exec(c.ctx)
	return err
}

func textValue(status state.Value[uint8]) string {
	return state.HeaterStatusText(status.Val, status.Valid)
}

func writeValue[T any](pipe redis.Pipeliner, ctx context.Context, key, field string, v state.Value[T]) {
	if !v.Valid {
		pipe.HSet(ctx, key, field, "")
		return
	}
	pipe.HSet(ctx, key, field, formatAny(v.Val))
}

func formatAny(v any) string {
	switch x := v.(type) {
	case uint8:
		return strconv.Itoa(int(x))
	case uint16:
		return strconv.Itoa(int(x))
	case float32:
		return strconv.FormatFloat(float64(x), 'f', 1, 32)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
