package lobby

import (
	"math"

	"ringhub/server/internal/codec"
)

// PositionalGain computes the linear-falloff voice gain a listener at
// `listener` should apply to audio from a speaker at `speaker`, given a
// room's min/max listening distance (spec §4.3):
//
//	d = euclidean distance
//	d <= min -> gain 1
//	d >= max -> gain 0 (caller should skip the listener entirely)
//	otherwise linear interpolation between the two
func PositionalGain(speaker, listener codec.Vec3, minDist, maxDist float64) float64 {
	dx := float64(speaker.X - listener.X)
	dy := float64(speaker.Y - listener.Y)
	dz := float64(speaker.Z - listener.Z)
	d := math.Sqrt(dx*dx + dy*dy + dz*dz)

	if d <= minDist {
		return 1
	}
	if d >= maxDist {
		return 0
	}
	if maxDist <= minDist {
		return 0
	}
	return 1 - (d-minDist)/(maxDist-minDist)
}
