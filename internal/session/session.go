// Package session runs the analysis pipeline for one observation stream.
// A Session owns one recognizer and one fatigue analyzer; a Manager keeps
// the live sessions of a process.
package session

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ayusman/formcheck/internal/athlete"
	"github.com/ayusman/formcheck/internal/fatigue"
	"github.com/ayusman/formcheck/internal/form"
	"github.com/ayusman/formcheck/internal/metrics"
	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/recognize"
)

var tracer = otel.Tracer("github.com/ayusman/formcheck/internal/session")

// DefaultFatigueWarning is the overall fatigue above which a result carries
// a warning.
const DefaultFatigueWarning = 0.3

// Config tunes every session created by a Manager.
type Config struct {
	Recognizer     recognize.Config
	Fatigue        fatigue.Config
	FatigueWarning float64
}

func DefaultConfig() Config {
	return Config{
		Recognizer:     recognize.DefaultConfig(),
		Fatigue:        fatigue.DefaultConfig(),
		FatigueWarning: DefaultFatigueWarning,
	}
}

// Options tune a single Process call.
type Options struct {
	// Exercise, when valid, skips recognition and analyzes the frame as
	// this exercise.
	Exercise form.Kind
}

// Fatigue is the fatigue part of a Result.
type Fatigue struct {
	Overall   float64            `json:"overall"`
	Warning   bool               `json:"warning"`
	Fatigued  bool               `json:"fatigued"`
	Threshold float64            `json:"threshold"`
	Details   map[string]float64 `json:"details"`
}

// Result is the analysis of one frame.
type Result struct {
	SessionID  string          `json:"session_id"`
	Seq        int64           `json:"seq"`
	Detected   bool            `json:"detected"`
	Exercise   string          `json:"exercise"`
	Confidence float64         `json:"confidence"`
	Phase      recognize.Phase `json:"phase"`
	Angles     form.Angles     `json:"angles"`
	Mistakes   []form.Mistake  `json:"mistakes"`
	Severity   form.Severity   `json:"severity"`
	Fatigue    Fatigue         `json:"fatigue"`
}

// Info describes a live session.
type Info struct {
	ID        string           `json:"id"`
	AthleteID string           `json:"athlete_id,omitempty"`
	User      *athlete.Profile `json:"user,omitempty"`
	Exercise  string           `json:"exercise"`
	Frames    int64            `json:"frames"`
	Alarms    int              `json:"fatigue_alarms"`
	StartedAt time.Time        `json:"started_at"`
	LastSeen  time.Time        `json:"last_seen"`
}

// Session processes the frames of one stream in order. Calls are serialized
// so one Session may be shared by several goroutines.
type Session struct {
	mu sync.Mutex

	id        string
	athleteID string
	user      *athlete.Profile
	cfg       Config
	hooks     []Hook
	metrics   *metrics.Manager
	now       func() time.Time

	recognizer *recognize.Recognizer
	fatigue    *fatigue.Analyzer

	seq       int64
	exercise  string
	fatigued  bool
	alarms    int
	startedAt time.Time
	lastSeen  time.Time
}

func newSession(id, athleteID string, user *athlete.Profile, cfg Config, m *metrics.Manager, now func() time.Time, hooks []Hook) *Session {
	if cfg.FatigueWarning <= 0 {
		cfg.FatigueWarning = DefaultFatigueWarning
	}
	started := now()
	return &Session{
		id:         id,
		athleteID:  athleteID,
		user:       user,
		cfg:        cfg,
		hooks:      hooks,
		metrics:    m,
		now:        now,
		recognizer: recognize.New(cfg.Recognizer),
		fatigue:    fatigue.New(cfg.Fatigue),
		exercise:   form.None.String(),
		startedAt:  started,
		lastSeen:   started,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Process analyzes one frame. A frame without any tracked landmark leaves
// the session state untouched and yields a result with Detected false.
func (s *Session) Process(ctx context.Context, f pose.Frame, opts Options) Result {
	ctx, span := tracer.Start(ctx, "session.process")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	s.lastSeen = s.now()

	if f.Empty() {
		return Result{
			SessionID: s.id,
			Seq:       s.seq,
			Exercise:  s.exercise,
			Angles:    form.Angles{},
			Mistakes:  []form.Mistake{},
			Severity:  form.SeverityGood,
			Fatigue:   s.fatigueResult(s.fatigue.Scores()),
		}
	}

	scores := s.fatigue.Update(f, s.user)

	var rec recognize.Result
	if opts.Exercise.Valid() {
		rec = recognize.Result{Exercise: opts.Exercise, Confidence: 1, Phase: recognize.PhaseMid}
	} else {
		rec = s.recognizer.Recognize(&f, recognize.Hints{FatigueScore: scores.Overall, User: s.user})
	}

	report := form.Neutral(f)
	if rec.Exercise.Valid() {
		report, _ = form.Analyze(rec.Exercise, f)
	}

	s.seq++
	s.exercise = rec.Exercise.String()
	res := Result{
		SessionID:  s.id,
		Seq:        s.seq,
		Detected:   true,
		Exercise:   s.exercise,
		Confidence: rec.Confidence,
		Phase:      rec.Phase,
		Angles:     report.Angles,
		Mistakes:   report.Mistakes,
		Severity:   report.Severity,
		Fatigue:    s.fatigueResult(scores),
	}

	span.SetAttributes(
		attribute.String("session.id", s.id),
		attribute.Int64("frame.seq", res.Seq),
		attribute.String("exercise", res.Exercise),
	)

	s.emit(ctx, Event{Type: EventFrame, SessionID: s.id, Result: &res})

	alarm := res.Fatigue.Fatigued && !s.fatigued
	s.fatigued = res.Fatigue.Fatigued
	if alarm {
		s.alarms++
		s.emit(ctx, Event{Type: EventFatigueAlarm, SessionID: s.id, Result: &res})
	}
	if res.Severity == form.SeveritySevere {
		s.emit(ctx, Event{Type: EventSevereForm, SessionID: s.id, Result: &res})
	}

	if s.metrics != nil {
		s.metrics.CounterFrames.WithLabelValues(res.Exercise).Inc()
		s.metrics.HistFrameDuration.Observe(time.Since(start).Seconds())
		if alarm {
			s.metrics.CounterFatigueAlarms.Inc()
		}
	}
	return res
}

func (s *Session) fatigueResult(scores fatigue.Scores) Fatigue {
	return Fatigue{
		Overall:   scores.Overall,
		Warning:   scores.Overall > s.cfg.FatigueWarning,
		Fatigued:  s.fatigue.IsFatigued(),
		Threshold: s.fatigue.Threshold(),
		Details:   scores.Details(),
	}
}

// State returns the recognizer snapshot.
func (s *Session) State() recognize.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recognizer.State()
}

// Info returns a description of the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info()
}

func (s *Session) info() Info {
	return Info{
		ID:        s.id,
		AthleteID: s.athleteID,
		User:      s.user,
		Exercise:  s.exercise,
		Frames:    s.seq,
		Alarms:    s.alarms,
		StartedAt: s.startedAt,
		LastSeen:  s.lastSeen,
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Reset discards the recognizer and fatigue state, for example between sets.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recognizer.Reset()
	s.fatigue.Reset()
	s.fatigued = false
	s.exercise = form.None.String()
}
