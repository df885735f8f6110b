// Package gateway turns inbound text commands into matchmaking operations
// and their replies. Transports feed it raw messages and deliver what it returns.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"

	"poker24/internal/model"
	"poker24/internal/protocol"
	"poker24/internal/service"
)

// Engine is the matchmaking surface the dispatcher drives
type Engine interface {
	Join(ctx context.Context, p model.PlayerRecord) service.JoinResult
	Leave(name string) bool
	SubmitAnswer(ctx context.Context, name, expression string, elapsed float64) service.Verdict
}

// ErrForeignName is returned when a connection sends a command on behalf of another player
var ErrForeignName = errors.New("command names another player")

// Dispatcher decodes commands and runs them against the engine
type Dispatcher struct {
	engine Engine
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(engine Engine) *Dispatcher {
	return &Dispatcher{engine: engine}
}

// Handle runs one raw command and returns the reply for its sender.
// A malformed command returns an error and no reply. A panic while handling
// is recovered and reported as an error so the caller's loop keeps going.
func (d *Dispatcher) Handle(ctx context.Context, raw string) (string, error) {
	return d.handle(ctx, "", raw)
}

// HandleAs is Handle for an authenticated sender; commands naming anyone else are refused
func (d *Dispatcher) HandleAs(ctx context.Context, sender, raw string) (string, error) {
	return d.handle(ctx, sender, raw)
}

func (d *Dispatcher) handle(ctx context.Context, sender, raw string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			reply = ""
			err = fmt.Errorf("command %q panicked: %v", raw, r)
		}
	}()

	cmd, err := protocol.ParseCommand(raw)
	if err != nil {
		return "", err
	}
	if sender != "" && cmd.Name != sender {
		return "", fmt.Errorf("%w: %s sent %s for %s", ErrForeignName, sender, cmd.Type, cmd.Name)
	}
	return d.Dispatch(ctx, cmd), nil
}

// Dispatch runs a decoded command and returns its reply
func (d *Dispatcher) Dispatch(ctx context.Context, cmd *protocol.Command) string {
	switch cmd.Type {
	case protocol.CmdRequestGame:
		result := d.engine.Join(ctx, model.PlayerRecord{
			Name:         cmd.Name,
			GamesWon:     cmd.GamesWon,
			AvgTimeToWin: cmd.AvgTimeToWin,
		})
		if result.Admitted() {
			return protocol.Reply(protocol.ReplyGameJoined, cmd.Name)
		}
		return protocol.Reply(protocol.ReplyGameFull, cmd.Name)

	case protocol.CmdLeaveGame:
		if !d.engine.Leave(cmd.Name) {
			log.Printf("Player %s was not in the lobby", cmd.Name)
		}
		return protocol.Reply(protocol.ReplyGameLeft, cmd.Name)

	case protocol.CmdSubmitAnswer:
		verdict := d.engine.SubmitAnswer(ctx, cmd.Name, cmd.Expression, cmd.Elapsed)
		if verdict.Correct {
			return protocol.Reply(protocol.ReplyRightAnswer, cmd.Name)
		}
		return protocol.Reply(protocol.ReplyWrongAnswer, cmd.Name, verdict.Reason)
	}

	// ParseCommand only yields the types above
	log.Printf("Dropping command of unknown type %s", cmd.Type)
	return ""
}
