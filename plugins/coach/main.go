// Package main is a coaching plugin. It reads one session event on stdin
// and answers with a short cue, optionally appending it to a log file.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

type Request struct {
	Event     string          `json:"event"`
	SessionID string          `json:"session_id"`
	Exercise  string          `json:"exercise"`
	Config    json.RawMessage `json:"config"`
	Payload   json.RawMessage `json:"payload"`
}

type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type Config struct {
	// CueFile, when set, receives one line per cue.
	CueFile string `json:"cue_file"`
}

// payload is the subset of a frame result the coach reads.
type payload struct {
	Mistakes []struct {
		Issue    string `json:"issue"`
		Severity string `json:"severity"`
		Fix      string `json:"fix"`
	} `json:"mistakes"`
	Fatigue struct {
		Overall float64 `json:"overall"`
	} `json:"fatigue"`
	Frames int `json:"frames"`
}

func main() {
	resp := handle(os.Stdin)
	_ = json.NewEncoder(os.Stdout).Encode(resp)
}

func handle(r io.Reader) Response {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return failure("decode request: %v", err)
	}

	var p payload
	if len(req.Payload) > 0 && string(req.Payload) != "null" {
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return failure("parse payload: %v", err)
		}
	}

	cue, err := cueFor(req, p)
	if err != nil {
		return failure("%v", err)
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return failure("parse config: %v", err)
		}
	}
	if cfg.CueFile != "" {
		if err := appendLine(cfg.CueFile, fmt.Sprintf("[%s] %s", req.SessionID, cue)); err != nil {
			return failure("write cue: %v", err)
		}
	}

	data, _ := json.Marshal(map[string]string{"cue": cue})
	return Response{Success: true, Data: data}
}

func cueFor(req Request, p payload) (string, error) {
	exercise := req.Exercise
	if exercise == "" || exercise == "unknown" {
		exercise = "this set"
	}
	switch req.Event {
	case "fatigue_alarm":
		return fmt.Sprintf("Fatigue is building (%.0f%%). Slow down or rest before the next %s rep.",
			p.Fatigue.Overall*100, exercise), nil
	case "severe_form":
		var fixes []string
		for _, m := range p.Mistakes {
			if m.Severity == "severe" {
				fixes = append(fixes, m.Fix)
			}
		}
		if len(fixes) == 0 {
			return fmt.Sprintf("Check your %s form.", exercise), nil
		}
		return strings.Join(fixes, " "), nil
	case "session_end":
		return fmt.Sprintf("Set complete: %d frames analyzed. Good work.", p.Frames), nil
	default:
		return "", fmt.Errorf("unknown event: %s", req.Event)
	}
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func failure(format string, args ...any) Response {
	return Response{Success: false, Error: fmt.Sprintf(format, args...)}
}
