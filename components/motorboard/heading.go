package motorboard

import "math"

// headingSectors maps each 45 degree sector, clockwise from straight ahead, to a direction.
var headingSectors = [8]ChassisDirection{
	Forward,
	DiagonalForwardRight,
	StrafeRight,
	DiagonalBackwardRight,
	Backward,
	DiagonalBackwardLeft,
	StrafeLeft,
	DiagonalForwardLeft,
}

// HeadingDirection snaps a compass heading in degrees, 0 straight ahead and increasing
// clockwise, to the nearest of the eight translation directions. Any finite heading is accepted
// and normalized into [0, 360).
func HeadingDirection(degrees float64) (ChassisDirection, bool) {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return 0, false
	}
	normalized := math.Mod(degrees, 360)
	if normalized < 0 {
		normalized += 360
	}
	sector := int(math.Round(normalized/45)) % len(headingSectors)
	return headingSectors[sector], true
}
