package colortemp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/philtems/colorwarm/pkg/mqtt"
)

// remoteTimeout bounds a command received over MQTT
const remoteTimeout = 10 * time.Second

// Request is the JSON form of a command, shared by the control API and the
// MQTT command topic
type Request struct {
	Action     string   `json:"action,omitempty"`
	Kelvin     int      `json:"kelvin"`
	Brightness *float64 `json:"brightness,omitempty"`
	Relative   bool     `json:"relative"`
}

// Command converts the request. A missing brightness means 1.0 for absolute
// targets and no change for relative ones.
func (r Request) Command() (Command, error) {
	switch CommandKind(r.Action) {
	case CmdSet:
		brightness := 1.0
		if r.Relative {
			brightness = 0
		}
		if r.Brightness != nil {
			brightness = *r.Brightness
		}
		return Command{Kind: CmdSet, Kelvin: r.Kelvin, Brightness: brightness, Relative: r.Relative}, nil
	case CmdToggle, CmdReset, CmdAuto, CmdQuery:
		return Command{Kind: CommandKind(r.Action)}, nil
	default:
		return Command{}, fmt.Errorf("unknown action %q", r.Action)
	}
}

// SubscribeCommands feeds JSON requests published on the host's command topic
// into the agent
func SubscribeCommands(client mqtt.Client, host string, a Submitter, logger *slog.Logger) error {
	topic := mqtt.CommandTopic(host)

	handler := func(msg mqtt.Message) {
		var req Request
		if err := json.Unmarshal(msg.Payload(), &req); err != nil {
			logger.Warn("Ignoring malformed command", "topic", msg.Topic(), "error", err)
			return
		}
		cmd, err := req.Command()
		if err != nil {
			logger.Warn("Ignoring command", "topic", msg.Topic(), "error", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()

		res, err := a.Submit(ctx, cmd)
		if err != nil {
			logger.Warn("Remote command failed", "action", req.Action, "error", err)
			return
		}
		logger.Info("Remote command applied",
			"action", req.Action,
			"kelvin", res.Target.Kelvin,
			"brightness", res.Target.Brightness,
			"mode", string(res.Mode.Mode))
	}

	if err := client.Subscribe(topic, 1, handler); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	logger.Info("Subscribed to command topic", "topic", topic)
	return nil
}
