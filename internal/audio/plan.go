package audio

import (
	"fmt"
	"math"
)

type Mode int

const (
	// Trim cuts the track at the video duration.
	Trim Mode = iota
	// Loop repeats a short track, then trims the overhang.
	Loop
)

func (m Mode) String() string {
	if m == Loop {
		return "loop"
	}
	return "trim"
}

// Plan reconciles an audio track with the video length. Loops counts the
// extra repetitions after the first play.
type Plan struct {
	Mode     Mode
	Loops    int
	Duration float64
}

// Reconcile plans how audio of length audio covers video seconds exactly.
func Reconcile(video, audio float64) (Plan, error) {
	if video <= 0 {
		return Plan{}, fmt.Errorf("invalid video duration %.3fs", video)
	}
	if audio <= 0 || math.IsNaN(audio) || math.IsInf(audio, 0) {
		return Plan{}, fmt.Errorf("invalid audio duration %.3fs", audio)
	}
	if audio >= video {
		return Plan{Mode: Trim, Duration: video}, nil
	}
	plays := int(math.Ceil(video / audio))
	return Plan{Mode: Loop, Loops: plays - 1, Duration: video}, nil
}

// AudioDuration is the length of the reconciled track for a source of audio seconds.
func (p Plan) AudioDuration(audio float64) float64 {
	return math.Min(audio*float64(p.Loops+1), p.Duration)
}
