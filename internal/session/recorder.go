package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ayusman/formcheck/internal/store"
)

// Recorder is a Hook persisting sessions and per-frame results.
type Recorder struct {
	store *store.Store
}

func NewRecorder(s *store.Store) *Recorder {
	return &Recorder{store: s}
}

func (r *Recorder) Handle(ctx context.Context, e Event) error {
	switch e.Type {
	case EventStart:
		sess := &store.Session{
			ID:        e.SessionID,
			AthleteID: e.Info.AthleteID,
			StartedAt: e.Info.StartedAt,
		}
		if u := e.Info.User; u != nil {
			sess.Flexibility = u.Flexibility
			sess.Age = u.Age
		}
		if err := r.store.Sessions().Create(ctx, sess); err != nil {
			return fmt.Errorf("record session start: %w", err)
		}
	case EventFrame:
		mistakes, err := json.Marshal(e.Result.Mistakes)
		if err != nil {
			return fmt.Errorf("marshal mistakes: %w", err)
		}
		fr := &store.FrameResult{
			SessionID:      e.SessionID,
			Seq:            e.Result.Seq,
			Exercise:       e.Result.Exercise,
			Confidence:     e.Result.Confidence,
			Phase:          string(e.Result.Phase),
			Severity:       string(e.Result.Severity),
			Mistakes:       mistakes,
			FatigueOverall: e.Result.Fatigue.Overall,
		}
		if err := r.store.Results().Append(ctx, fr); err != nil {
			return fmt.Errorf("record frame %d: %w", e.Result.Seq, err)
		}
	case EventFatigueAlarm:
		if err := r.store.Sessions().RecordAlarm(ctx, e.SessionID); err != nil {
			return fmt.Errorf("record fatigue alarm: %w", err)
		}
	case EventEnd:
		if err := r.store.Sessions().End(ctx, e.SessionID, e.Info.LastSeen); err != nil {
			return fmt.Errorf("record session end: %w", err)
		}
	}
	return nil
}
