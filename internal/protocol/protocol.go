// Package protocol encodes and decodes the underscore-delimited text messages
// exchanged with game clients over the command queue, the event topic and websockets.
package protocol

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"poker24/internal/model"
)

// Separator splits the fields of every message
const Separator = "_"

// CommandType identifies an inbound client command
type CommandType string

const (
	CmdRequestGame  CommandType = "REQUESTGAME"
	CmdLeaveGame    CommandType = "LEAVEGAME"
	CmdSubmitAnswer CommandType = "SUBMITANSWER"
)

// Reply and broadcast prefixes
const (
	ReplyGameJoined  = "GAMEJOINED"
	ReplyGameFull    = "GAMEFULL"
	ReplyGameLeft    = "GAMELEFT"
	ReplyRightAnswer = "RIGHTANSWER"
	ReplyWrongAnswer = "WRONGANSWER"

	EventStartGame = "STARTGAME"
	EventEndGame   = "ENDGAME"
)

var ErrMalformedCommand = errors.New("malformed command")

// Command is a decoded inbound message.
// Fields that do not apply to the command type are left zero.
type Command struct {
	Type         CommandType
	Name         string
	GamesWon     int
	AvgTimeToWin float64
	Expression   string
	Elapsed      float64
}

// ParseCommand decodes one inbound message
func ParseCommand(raw string) (*Command, error) {
	parts := strings.Split(strings.TrimSpace(raw), Separator)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrMalformedCommand, raw)
	}
	if !ValidName(parts[1]) {
		return nil, fmt.Errorf("%w: name %q", ErrMalformedCommand, parts[1])
	}
	cmd := &Command{Type: CommandType(parts[0]), Name: parts[1]}

	switch cmd.Type {
	case CmdRequestGame:
		if len(parts) != 4 {
			return nil, fmt.Errorf("%w: %s expects 4 fields, got %d", ErrMalformedCommand, cmd.Type, len(parts))
		}
		wins, err := strconv.Atoi(parts[2])
		if err != nil || wins < 0 {
			return nil, fmt.Errorf("%w: games won %q", ErrMalformedCommand, parts[2])
		}
		avg, err := parseSeconds(parts[3])
		if err != nil {
			return nil, fmt.Errorf("%w: average time %q", ErrMalformedCommand, parts[3])
		}
		cmd.GamesWon = wins
		cmd.AvgTimeToWin = avg

	case CmdLeaveGame:
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %s expects 2 fields, got %d", ErrMalformedCommand, cmd.Type, len(parts))
		}

	case CmdSubmitAnswer:
		if len(parts) < 4 {
			return nil, fmt.Errorf("%w: %s expects 4 fields, got %d", ErrMalformedCommand, cmd.Type, len(parts))
		}
		elapsed, err := parseSeconds(parts[len(parts)-1])
		if err != nil {
			return nil, fmt.Errorf("%w: elapsed time %q", ErrMalformedCommand, parts[len(parts)-1])
		}
		// The expression is everything between the name and the elapsed time
		cmd.Expression = strings.Join(parts[2:len(parts)-1], Separator)
		cmd.Elapsed = elapsed

	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedCommand, parts[0])
	}

	return cmd, nil
}

// parseSeconds accepts finite, non-negative durations only
func parseSeconds(field string) (float64, error) {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("out of range: %v", v)
	}
	return v, nil
}

// Reply builds a reply message such as GAMEJOINED_alice
func Reply(prefix, name string, extra ...string) string {
	fields := append([]string{prefix, name}, extra...)
	return strings.Join(fields, Separator)
}

// FormatStartGame encodes a STARTGAME broadcast.
// The fourth number is sent twice; existing clients read the roster from the seventh field.
func FormatStartGame(ev *model.GameStarted) string {
	var sb strings.Builder
	sb.WriteString(EventStartGame)
	for _, n := range ev.Numbers {
		sb.WriteString(Separator)
		sb.WriteString(strconv.Itoa(n))
	}
	if len(ev.Numbers) > 0 {
		sb.WriteString(Separator)
		sb.WriteString(strconv.Itoa(ev.Numbers[len(ev.Numbers)-1]))
	}
	sb.WriteString(Separator)
	for i, p := range ev.Players {
		if i > 0 {
			sb.WriteString("|")
		}
		sb.WriteString(p.Name)
		sb.WriteString(" ")
		sb.WriteString(strconv.Itoa(p.GamesWon))
		sb.WriteString(" ")
		sb.WriteString(FormatFloat(p.AvgTimeToWin))
	}
	return sb.String()
}

// FormatEndGame encodes an ENDGAME broadcast
func FormatEndGame(ev *model.GameEnded) string {
	return strings.Join([]string{EventEndGame, ev.Winner, ev.Expression, FormatFloat(ev.ElapsedSeconds)}, Separator)
}

// FormatFloat renders a float with at least one decimal place (0.0, 12.5)
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// ValidName reports whether a name can travel inside a message unescaped
func ValidName(name string) bool {
	if name == "" || len(name) > 32 {
		return false
	}
	return !strings.ContainsAny(name, Separator+"| \t\r\n")
}
