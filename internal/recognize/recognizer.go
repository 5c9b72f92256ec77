package recognize

import (
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/formcheck/internal/athlete"
	"github.com/ayusman/formcheck/internal/form"
	"github.com/ayusman/formcheck/internal/history"
	"github.com/ayusman/formcheck/internal/pose"
)

// Phase is the coarse stage of a repetition.
type Phase string

const (
	PhaseInit    Phase = "init"
	PhaseMid     Phase = "mid"
	PhaseEnd     Phase = "end"
	PhaseUnknown Phase = "unk"
)

// Default recognizer parameters.
const (
	DefaultConfidenceThreshold = 0.7
	DefaultMinFrames           = 10
	DefaultSmoothWindow        = 5
	DefaultHistorySize         = 30
)

const (
	bootstrapConfidence = 0.8
	bootstrapPushes     = 3
	// Quick detection is retried while confidence stays below this.
	bootstrapBelow     = 0.5
	fatiguePenaltyOver = 0.8
	fatiguePenalty     = 0.2
	switchPenalty      = 0.7
	stabilityReward    = 1.1
	phaseMargin        = 10.0
	outOfRangeSpan     = 90.0
)

// Config tunes a Recognizer.
type Config struct {
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	MinFrames           int     `toml:"min_frames"`
	QuickDetect         bool    `toml:"quick_detect"`
	SmoothWindow        int     `toml:"smooth_window"`
	HistorySize         int     `toml:"history_size"`
}

// DefaultConfig returns the default recognizer configuration.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		MinFrames:           DefaultMinFrames,
		QuickDetect:         true,
		SmoothWindow:        DefaultSmoothWindow,
		HistorySize:         DefaultHistorySize,
	}
}

// Hints carries optional per-call context.
type Hints struct {
	// FatigueScore above 0.8 lowers the reported confidence.
	FatigueScore float64
	// User, when set, replaces the profiles with the defaults adjusted for
	// this athlete.
	User *athlete.Profile
}

// Result is the outcome of one Recognize call.
type Result struct {
	Exercise   form.Kind `json:"exercise"`
	Confidence float64   `json:"confidence"`
	Phase      Phase     `json:"phase"`
}

// State is a snapshot of a recognizer.
type State struct {
	Result
	History []form.Kind `json:"history"`
}

// Recognizer fuses per-frame profile scores over a window of frames into a
// smoothed exercise label. A Recognizer is not safe for concurrent use; each
// stream owns its own instance.
type Recognizer struct {
	cfg      Config
	profiles Profiles

	current    form.Kind
	confidence float64
	lastPhase  Phase

	labels *history.Ring[form.Kind]
	scores *history.Ring[map[form.Kind]float64]
}

// New creates a Recognizer using the default profiles. Non-positive sizes in
// cfg fall back to the defaults.
func New(cfg Config) *Recognizer {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.MinFrames <= 0 {
		cfg.MinFrames = DefaultMinFrames
	}
	if cfg.SmoothWindow <= 0 {
		cfg.SmoothWindow = DefaultSmoothWindow
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	return &Recognizer{
		cfg:       cfg,
		profiles:  DefaultProfiles(),
		lastPhase: PhaseUnknown,
		labels:    history.New[form.Kind](cfg.HistorySize),
		scores:    history.New[map[form.Kind]float64](cfg.SmoothWindow),
	}
}

// Profiles returns a copy of the profiles in use.
func (r *Recognizer) Profiles() Profiles {
	return r.profiles.Clone()
}

// Recognize consumes one frame and returns the current exercise, its
// confidence and the movement phase. A nil frame returns the previous
// state unchanged.
func (r *Recognizer) Recognize(f *pose.Frame, hints Hints) Result {
	if hints.User != nil {
		r.profiles = DefaultProfiles().AdjustedFor(*hints.User)
	}
	if f == nil {
		return r.result(r.lastPhase)
	}

	if r.cfg.QuickDetect && (r.current == form.None || r.confidence < bootstrapBelow) {
		if k := QuickDetect(*f); k != form.None {
			if _, ok := r.profiles.Lookup(k); ok {
				for range bootstrapPushes {
					r.labels.Push(k)
				}
				if r.labels.Len() >= r.cfg.MinFrames/2 {
					r.current = k
					r.confidence = bootstrapConfidence
					r.lastPhase = PhaseInit
					return r.result(PhaseInit)
				}
			}
		}
	}

	angles := keyAngles(*f)
	if len(angles) == 0 {
		return r.result(r.lastPhase)
	}

	r.scores.Push(r.score(angles))
	best, ok := r.best()
	if !ok {
		return Result{Exercise: form.None, Phase: r.lastPhase}
	}
	r.labels.Push(best)

	if r.labels.Len() >= r.cfg.MinFrames {
		r.updateConfidence()
	}

	if hints.FatigueScore > fatiguePenaltyOver {
		r.confidence = max(0, r.confidence-fatiguePenalty)
	}

	r.lastPhase = r.phase(angles, best)
	return r.result(r.lastPhase)
}

// State returns a snapshot of the recognizer.
func (r *Recognizer) State() State {
	return State{
		Result:  r.result(r.lastPhase),
		History: r.labels.Values(),
	}
}

// Reset discards all accumulated state. Profiles are kept.
func (r *Recognizer) Reset() {
	r.current = form.None
	r.confidence = 0
	r.lastPhase = PhaseUnknown
	r.labels.Clear()
	r.scores.Clear()
}

func (r *Recognizer) result(phase Phase) Result {
	return Result{Exercise: r.current, Confidence: r.confidence, Phase: phase}
}

// score rates every profile against the observed angles. An angle inside
// the expected range scores 1, outside it decays linearly to 0 over 90
// degrees from the nearest bound. Profiles with no matching angle type are
// left out.
func (r *Recognizer) score(angles []observedAngle) map[form.Kind]float64 {
	scores := make(map[form.Kind]float64, len(r.profiles))
	for _, p := range r.profiles {
		var matched []float64
		for _, a := range angles {
			rng, ok := p.Ranges[a.typ]
			if !ok {
				continue
			}
			if rng.Contains(a.deg) {
				matched = append(matched, 1)
				continue
			}
			dist := min(abs(a.deg-rng.Min), abs(a.deg-rng.Max))
			matched = append(matched, max(0, 1-dist/outOfRangeSpan))
		}
		if len(matched) > 0 {
			scores[p.Kind] = stat.Mean(matched, nil) * p.Weight
		}
	}
	return scores
}

// best averages the smoothing window and returns the highest scoring
// exercise. Ties go to the earlier profile.
func (r *Recognizer) best() (form.Kind, bool) {
	n := r.scores.Len()
	if n == 0 {
		return form.None, false
	}
	summed := make(map[form.Kind]float64)
	for _, s := range r.scores.All() {
		for k, v := range s {
			summed[k] += v
		}
	}
	if len(summed) == 0 {
		return form.None, false
	}

	best, bestScore, found := form.None, 0.0, false
	for _, p := range r.profiles {
		v, ok := summed[p.Kind]
		if !ok {
			continue
		}
		if avg := v / float64(n); !found || avg > bestScore {
			best, bestScore, found = p.Kind, avg, true
		}
	}
	return best, found
}

// updateConfidence recomputes confidence from the label history. Switching
// to a different label is penalized, keeping the current one is rewarded.
func (r *Recognizer) updateConfidence() {
	mode, count := r.mode()
	if count == 0 {
		r.confidence = 0
		return
	}
	freq := float64(count) / float64(r.labels.Len())

	if r.current != form.None && mode != r.current {
		r.confidence = freq * switchPenalty
	} else {
		r.confidence = min(1, freq*stabilityReward)
	}
	if freq >= r.cfg.ConfidenceThreshold {
		r.current = mode
	}
}

// mode returns the most frequent label. Ties go to the label seen first.
func (r *Recognizer) mode() (form.Kind, int) {
	counts := make(map[form.Kind]int)
	var order []form.Kind
	for _, k := range r.labels.All() {
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	mode, best := form.None, 0
	for _, k := range order {
		if counts[k] > best {
			mode, best = k, counts[k]
		}
	}
	return mode, best
}

// phase maps the mean knee angle onto the knee range of the exercise.
func (r *Recognizer) phase(angles []observedAngle, k form.Kind) Phase {
	p, ok := r.profiles.Lookup(k)
	if !ok {
		return PhaseUnknown
	}
	rng, ok := p.Ranges[Knee]
	if !ok {
		return PhaseUnknown
	}
	var knees []float64
	for _, a := range angles {
		if a.typ == Knee {
			knees = append(knees, a.deg)
		}
	}
	if len(knees) == 0 {
		return PhaseUnknown
	}
	switch knee := stat.Mean(knees, nil); {
	case knee < rng.Min+phaseMargin:
		return PhaseEnd
	case knee > rng.Max-phaseMargin:
		return PhaseInit
	default:
		return PhaseMid
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
