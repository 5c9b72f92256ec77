package pose

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Angle is a joint angle in degrees within [0,180], or undefined.
type Angle struct {
	deg float64
	ok  bool
}

// Degrees returns a defined angle.
func Degrees(d float64) Angle {
	return Angle{deg: d, ok: true}
}

// Value returns the angle in degrees and whether it is defined.
func (a Angle) Value() (float64, bool) {
	return a.deg, a.ok
}

// Valid reports whether the angle is defined.
func (a Angle) Valid() bool {
	return a.ok
}

// MarshalJSON encodes an undefined angle as null.
func (a Angle) MarshalJSON() ([]byte, error) {
	if !a.ok {
		return []byte("null"), nil
	}
	return json.Marshal(a.deg)
}

// UnmarshalJSON decodes null as an undefined angle.
func (a *Angle) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Angle{}
		return nil
	}
	var d float64
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*a = Degrees(d)
	return nil
}

// AngleAt returns the angle at p2 between p1-p2 and p3-p2. It is undefined
// when any point is missing or either vector has zero length.
func AngleAt(p1, p2, p3 Point) Angle {
	if !p1.Valid() || !p2.Valid() || !p3.Valid() {
		return Angle{}
	}
	v1 := r3.Sub(p1.Vec(), p2.Vec())
	v2 := r3.Sub(p3.Vec(), p2.Vec())
	n1 := r3.Norm(v1)
	n2 := r3.Norm(v2)
	if n1 == 0 || n2 == 0 {
		return Angle{}
	}
	cos := r3.Dot(v1, v2) / (n1 * n2)
	cos = math.Max(-1, math.Min(1, cos))
	return Degrees(math.Acos(cos) * 180 / math.Pi)
}

// Distance returns the Euclidean distance between two points, false if
// either is missing.
func Distance(p1, p2 Point) (float64, bool) {
	if !p1.Valid() || !p2.Valid() {
		return 0, false
	}
	return r3.Norm(r3.Sub(p1.Vec(), p2.Vec())), true
}

// Mean returns the average of the defined angles, false if none is defined.
func Mean(angles ...Angle) (float64, bool) {
	var sum float64
	n := 0
	for _, a := range angles {
		if a.ok {
			sum += a.deg
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Both returns the two angle values only if both are defined.
func Both(a, b Angle) (float64, float64, bool) {
	if !a.ok || !b.ok {
		return 0, 0, false
	}
	return a.deg, b.deg, true
}
