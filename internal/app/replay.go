package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/athlete"
	"github.com/ayusman/formcheck/internal/form"
	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/session"
)

// ReplayOptions tune a replay.
type ReplayOptions struct {
	Session  session.Config
	Exercise form.Kind
	User     *athlete.Profile
	Hooks    []session.Hook
}

// ReplayStats counts the frames of a replay.
type ReplayStats struct {
	Frames   int `json:"frames"`
	Detected int `json:"detected"`
	Alarms   int `json:"fatigue_alarms"`
}

// Replay runs every frame of src through one fresh session and writes one
// Result JSON per line to w. The source is closed on return.
func Replay(ctx context.Context, src pose.Source, opts ReplayOptions, w io.Writer) (ReplayStats, error) {
	var stats ReplayStats

	manager := session.NewManager(opts.Session, nil, opts.Hooks...)
	s, err := manager.Create(ctx, session.CreateOptions{User: opts.User})
	if err != nil {
		src.Close()
		return stats, fmt.Errorf("create session: %w", err)
	}
	defer manager.Close(ctx)

	enc := json.NewEncoder(w)
	err = session.Run(ctx, src, s, session.Options{Exercise: opts.Exercise}, func(res session.Result) error {
		stats.Frames++
		if res.Detected {
			stats.Detected++
		}
		return enc.Encode(res)
	})
	stats.Alarms = s.Info().Alarms
	if err != nil {
		return stats, err
	}

	log.Debugf("replayed %d frames (%d detected, %d fatigue alarms)", stats.Frames, stats.Detected, stats.Alarms)
	return stats, nil
}
