package animation

import (
	"fmt"
	"math"
	"strings"
)

// Kind is one of the six dance motions.
type Kind int

const (
	Bounce Kind = iota
	Wiggle
	Spin
	Shake
	Sway
	Hop

	numKinds
)

var kindNames = [numKinds]string{"bounce", "wiggle", "spin", "shake", "sway", "hop"}

// Kinds lists every motion in declaration order.
func Kinds() []Kind {
	return []Kind{Bounce, Wiggle, Spin, Shake, Sway, Hop}
}

func (k Kind) Valid() bool {
	return k >= 0 && k < numKinds
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind resolves a motion by name, case-insensitively.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range kindNames {
		if s == n {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown animation %q", name)
}

func ParseKinds(names []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(names))
	for _, name := range names {
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Transform is the per-frame placement of a sprite. DX and DY are applied
// when compositing; Rotation (degrees) and Scale are baked into the pixels.
type Transform struct {
	DX       int
	DY       int
	Rotation float64
	Scale    float64
}

// Curve holds one Transform per frame of an activation.
type Curve []Transform

// Rand is the random source used by Shake and by PickKind.
type Rand interface {
	Intn(n int) int
}

// Generate builds a curve of exactly n frames (none when n <= 0).
// Only Shake consumes rng.
func Generate(kind Kind, n int, rng Rand) (Curve, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown animation kind %d", int(kind))
	}
	if kind == Shake && rng == nil {
		return nil, fmt.Errorf("shake requires a random source")
	}
	if n < 0 {
		n = 0
	}

	curve := make(Curve, n)
	for i := range curve {
		fi := float64(i)
		t := Transform{Scale: 1}
		switch kind {
		case Bounce:
			t.DY = int(30 * math.Sin(0.3*fi))
		case Wiggle:
			t.DX = int(20 * math.Sin(0.4*fi))
		case Spin:
			t.Rotation = float64((8 * i) % 360)
		case Shake:
			t.DX = rng.Intn(21) - 10
			t.DY = rng.Intn(11) - 5
		case Sway:
			s := math.Sin(0.2 * fi)
			t.DX = int(25 * s)
			t.Rotation = 10 * s
		case Hop:
			t.DY = -int(50 * math.Abs(math.Sin(0.15*fi)))
		}
		curve[i] = t
	}
	return curve, nil
}

// PickKind draws uniformly from allowed, or from all kinds when allowed is empty.
func PickKind(rng Rand, allowed []Kind) Kind {
	if len(allowed) == 0 {
		allowed = Kinds()
	}
	return allowed[rng.Intn(len(allowed))]
}
