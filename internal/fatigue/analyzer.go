// Package fatigue estimates fatigue from joint stability, movement speed and
// shoulder jitter over a sliding window of frames.
package fatigue

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/formcheck/internal/athlete"
	"github.com/ayusman/formcheck/internal/history"
	"github.com/ayusman/formcheck/internal/pose"
)

// Default analyzer parameters.
const (
	DefaultWindow    = 30
	DefaultThreshold = 0.15
)

const (
	epsilon          = 1e-8
	velocityScale    = 5.0
	jitterScale      = 2.0
	jitterMinSamples = 4
	ageAdjustment    = 0.03
	youngAge         = 20
	olderAge         = 40
)

// keyJoints are the joints every accepted frame must contain.
var keyJoints = [numKeyJoints]pose.Joint{
	pose.LeftShoulder, pose.RightShoulder,
	pose.LeftHip, pose.RightHip,
	pose.LeftKnee, pose.RightKnee,
	pose.LeftAnkle, pose.RightAnkle,
	pose.LeftElbow, pose.RightElbow,
}

const numKeyJoints = 10

// Index of each joint in a keyPoints array.
const (
	iLeftShoulder = iota
	iRightShoulder
	iLeftHip
	iRightHip
	iLeftKnee
	iRightKnee
	iLeftAnkle
	iRightAnkle
	iLeftElbow
	iRightElbow
)

type keyPoints [numKeyJoints]pose.Point

// pairs are the left/right joint pairs whose distance is tracked, with the
// divisor that maps their variation onto [0,1].
var pairs = []struct {
	left, right int
	divisor     float64
	set         func(*Scores, float64)
}{
	{iLeftShoulder, iRightShoulder, 5, func(s *Scores, v float64) { s.ShoulderStability = v }},
	{iLeftHip, iRightHip, 4, func(s *Scores, v float64) { s.CoreStability = v }},
	{iLeftKnee, iRightKnee, 3, func(s *Scores, v float64) { s.KneeStability = v }},
	{iLeftElbow, iRightElbow, 3, func(s *Scores, v float64) { s.ElbowStability = v }},
	{iLeftAnkle, iRightAnkle, 3, func(s *Scores, v float64) { s.AnkleStability = v }},
}

// Scores are the per-aspect fatigue scores, each in [0,1].
type Scores struct {
	ShoulderStability float64 `json:"shoulder_stability"`
	CoreStability     float64 `json:"core_stability"`
	KneeStability     float64 `json:"knee_stability"`
	ElbowStability    float64 `json:"elbow_stability"`
	AnkleStability    float64 `json:"ankle_stability"`
	Velocity          float64 `json:"velocity"`
	EarlyFatigue      float64 `json:"early_fatigue"`
	Overall           float64 `json:"overall"`
}

// Details returns every score except Overall keyed by name.
func (s Scores) Details() map[string]float64 {
	return map[string]float64{
		"shoulder_stability": s.ShoulderStability,
		"core_stability":     s.CoreStability,
		"knee_stability":     s.KneeStability,
		"elbow_stability":    s.ElbowStability,
		"ankle_stability":    s.AnkleStability,
		"velocity":           s.Velocity,
		"early_fatigue":      s.EarlyFatigue,
	}
}

// Config tunes an Analyzer.
type Config struct {
	Window    int     `toml:"window"`
	Threshold float64 `toml:"threshold"`
	// Dynamic adapts the threshold to the athlete's age.
	Dynamic bool `toml:"dynamic"`
}

// DefaultConfig returns the default analyzer configuration.
func DefaultConfig() Config {
	return Config{Window: DefaultWindow, Threshold: DefaultThreshold, Dynamic: true}
}

// Analyzer tracks key joints across frames. It is not safe for concurrent
// use; each stream owns its own instance.
type Analyzer struct {
	cfg       Config
	window    *history.Ring[keyPoints]
	scores    Scores
	threshold float64
}

// New creates an Analyzer. A non-positive window or threshold falls back to
// the default.
func New(cfg Config) *Analyzer {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	return &Analyzer{
		cfg:       cfg,
		window:    history.New[keyPoints](cfg.Window),
		threshold: cfg.Threshold,
	}
}

// Update adds a frame and returns the scores. Frames missing any key joint
// are rejected and the previous scores are returned. Scores stay zero until
// two frames were accepted.
func (a *Analyzer) Update(f pose.Frame, user *athlete.Profile) Scores {
	var kp keyPoints
	for i, j := range keyJoints {
		p := f.Point(j)
		if !p.Valid() {
			return a.scores
		}
		kp[i] = p
	}

	a.window.Push(kp)
	if a.window.Len() < 2 {
		return a.scores
	}

	frames := a.window.Values()
	for _, p := range pairs {
		p.set(&a.scores, math.Min(variation(frames, p.left, p.right)/p.divisor, 1))
	}
	a.scores.Velocity = velocity(frames)
	a.scores.EarlyFatigue = earlyFatigue(frames)

	a.threshold = a.cfg.Threshold
	if a.cfg.Dynamic && user != nil {
		a.threshold = adaptThreshold(a.cfg.Threshold, user.EffectiveAge())
	}

	a.scores.Overall = stat.Mean([]float64{
		a.scores.ShoulderStability,
		a.scores.CoreStability,
		a.scores.KneeStability,
		a.scores.Velocity,
		a.scores.EarlyFatigue,
	}, nil)

	return a.scores
}

// Scores returns the latest scores.
func (a *Analyzer) Scores() Scores {
	return a.scores
}

// IsFatigued reports whether the overall score exceeds the threshold.
func (a *Analyzer) IsFatigued() bool {
	return a.scores.Overall > a.threshold
}

// Threshold returns the threshold used by the last full update.
func (a *Analyzer) Threshold() float64 {
	return a.threshold
}

// Frames returns the number of frames in the window.
func (a *Analyzer) Frames() int {
	return a.window.Len()
}

// Reset discards the window and scores.
func (a *Analyzer) Reset() {
	a.window.Clear()
	a.scores = Scores{}
	a.threshold = a.cfg.Threshold
}

// variation is the mean relative change of the distance between two joints
// over consecutive frames, in percent.
func variation(frames []keyPoints, j1, j2 int) float64 {
	changes := make([]float64, 0, len(frames)-1)
	for i := 1; i < len(frames); i++ {
		prev, _ := pose.Distance(frames[i-1][j1], frames[i-1][j2])
		curr, _ := pose.Distance(frames[i][j1], frames[i][j2])
		changes = append(changes, math.Abs(curr-prev)/(prev+epsilon))
	}
	if len(changes) == 0 {
		return 0
	}
	return stat.Mean(changes, nil) * 100
}

// velocity is the mean displacement of every key joint between consecutive
// frames, scaled onto [0,1].
func velocity(frames []keyPoints) float64 {
	moves := make([]float64, 0, (len(frames)-1)*numKeyJoints)
	for i := 1; i < len(frames); i++ {
		for j := range numKeyJoints {
			d, _ := pose.Distance(frames[i][j], frames[i-1][j])
			moves = append(moves, d)
		}
	}
	if len(moves) == 0 {
		return 0
	}
	return math.Min(stat.Mean(moves, nil)*velocityScale, 1)
}

// earlyFatigue sums the left shoulder path over the window as a jitter signal.
func earlyFatigue(frames []keyPoints) float64 {
	if len(frames) < jitterMinSamples {
		return 0
	}
	steps := make([]float64, 0, len(frames)-1)
	for i := 1; i < len(frames); i++ {
		d, _ := pose.Distance(frames[i][iLeftShoulder], frames[i-1][iLeftShoulder])
		steps = append(steps, d)
	}
	return math.Min(floats.Sum(steps)*jitterScale, 1)
}

func adaptThreshold(base float64, age int) float64 {
	switch {
	case age < youngAge:
		return base + ageAdjustment
	case age > olderAge:
		return base - ageAdjustment
	default:
		return base
	}
}
