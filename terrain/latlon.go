package terrain

import (
	"math"

	"github.com/spatialmodel/worldfield/fixedpoint"
	"github.com/spatialmodel/worldfield/worldfield"
)

// cordicIterations is the number of CORDIC rotations carried, chosen to
// converge well past Q16.16's 16 fractional bits.
const cordicIterations = 20

// atanTurns[i] holds atan(2^-i) expressed as a fraction of a full turn
// (not radians). The table is built once at package init from float64 math
// — an explicitly allowed exception to "no float on hot paths" since it
// runs exactly once, never per query, exactly like fixedpoint.FromFloat's
// own documented fixture-boundary exception.
var atanTurns [cordicIterations]fixedpoint.Q16
var cordicGain fixedpoint.Q16
var cordicGainInv fixedpoint.Q16

func init() {
	gain := 1.0
	for i := 0; i < cordicIterations; i++ {
		theta := math.Atan(math.Pow(2, float64(-i)))
		atanTurns[i] = fixedpoint.FromFloat(theta / (2 * math.Pi))
		gain *= 1 / math.Sqrt(1+math.Pow(2, float64(-2*i)))
	}
	cordicGain = fixedpoint.FromFloat(gain)
	cordicGainInv = fixedpoint.FromFloat(1 / gain)
}

func shiftRight(v fixedpoint.Q16, i int) fixedpoint.Q16 {
	return fixedpoint.Q16(int32(v) >> uint(i))
}

// cordicVector runs CORDIC in vectoring mode: given a 2D vector (a0,b0), it
// returns its magnitude and its angle (as a fraction of a full turn,
// matching atan2(b0,a0)). No floating point, no trig table lookup beyond
// the fixed init-time atanTurns table.
func cordicVector(a0, b0 fixedpoint.Q16) (mag, angleTurns fixedpoint.Q16) {
	a, b := a0, b0
	var z fixedpoint.Q16
	if a < 0 {
		if b >= 0 {
			z = fixedpoint.FromFloat(0.5)
		} else {
			z = fixedpoint.FromFloat(-0.5)
		}
		a, b = -a, -b
	}
	for i := 0; i < cordicIterations; i++ {
		aShift := shiftRight(a, i)
		bShift := shiftRight(b, i)
		if b > 0 {
			a, b = a+bShift, b-aShift
			z = z + atanTurns[i]
		} else {
			a, b = a-bShift, b+aShift
			z = z - atanTurns[i]
		}
	}
	return a.Div(cordicGain), z
}

// cordicRotate runs CORDIC in rotation mode: the inverse of cordicVector,
// given a magnitude and an angle (turns), returns the 2D vector. Angles
// outside [-0.25,0.25] turns are folded through a 180-degree pre-rotation
// since the core iteration only converges within roughly a quarter turn.
func cordicRotate(mag, angleTurns fixedpoint.Q16) (a, b fixedpoint.Q16) {
	quarter := fixedpoint.FromFloat(0.25)
	half := fixedpoint.FromFloat(0.5)
	negate := false
	theta := angleTurns
	if theta > quarter {
		theta = theta.Sub(half)
		negate = true
	} else if theta < -quarter {
		theta = theta.Add(half)
		negate = true
	}
	a = mag.Mul(cordicGainInv)
	b = 0
	z := theta
	for i := 0; i < cordicIterations; i++ {
		aShift := shiftRight(a, i)
		bShift := shiftRight(b, i)
		if z >= 0 {
			a, b = a-bShift, b+aShift
			z = z - atanTurns[i]
		} else {
			a, b = a+bShift, b-aShift
			z = z + atanTurns[i]
		}
	}
	if negate {
		a, b = -a, -b
	}
	return a, b
}

// verticalAngle returns (magnitude, latitudeTurns) of p, treating Y as the
// polar axis: latitudeTurns is the angle of p's (horizontal-magnitude, Y)
// pair above or below the equatorial plane, in [-0.25, 0.25] turns.
func verticalAngle(p worldfield.Point) (mag, latTurns fixedpoint.Q16) {
	horiz, _ := cordicVector(p.X, p.Z)
	return cordicVector(horiz, p.Y)
}

// LatLon is a point expressed as latitude/longitude/altitude instead of
// Cartesian local coordinates. Lat and Lon are fractions of a full turn
// (Lat in [-0.25,0.25], Lon in [-0.5,0.5)); Alt is in the same Q16.16
// world units as local coordinates.
type LatLon struct {
	Lat fixedpoint.Q16
	Lon fixedpoint.Q16
	Alt fixedpoint.Q16
}

// ToLatLon converts a local point to LatLon for Sphere/Oblate shapes. ok is
// false for Slab, which only exposes a one-way PseudoLatitude (spec.md
// §4.4: "Lat/lon conversion exists for sphere/oblate shapes... slab shape
// uses planar pseudo-latitude").
func (desc SurfaceDesc) ToLatLon(p worldfield.Point) (LatLon, bool) {
	if desc.Shape != Sphere && desc.Shape != Oblate {
		return LatLon{}, false
	}
	horiz, lon := cordicVector(p.X, p.Z)
	mag, lat := cordicVector(horiz, p.Y)
	radiusAtLat := desc.radiusAtLatTurns(lat)
	return LatLon{Lat: lat, Lon: lon, Alt: mag.Sub(radiusAtLat)}, true
}

// FromLatLon is the inverse of ToLatLon up to rounding. Lat and Lon are
// Q16.16 fractions of a turn, so one angle step moves a point at radius r
// by about r*2*pi/65536 world units (about 0.05 at radius 512), and the
// cordicIterations CORDIC steps add their own rounding; the round trip is
// not exact to one Q16.16 ULP.
func (desc SurfaceDesc) FromLatLon(ll LatLon) (worldfield.Point, bool) {
	if desc.Shape != Sphere && desc.Shape != Oblate {
		return worldfield.Point{}, false
	}
	radiusAtLat := desc.radiusAtLatTurns(ll.Lat)
	r := radiusAtLat.Add(ll.Alt)
	horiz, y := cordicRotate(r, ll.Lat)
	x, z := cordicRotate(horiz, ll.Lon)
	return worldfield.Point{X: x, Y: y, Z: z}, true
}

func (desc SurfaceDesc) radiusAtLatTurns(latTurns fixedpoint.Q16) fixedpoint.Q16 {
	if desc.Shape == Sphere {
		return desc.Radius
	}
	return fixedpoint.Lerp(desc.EquatorialRadius, desc.PolarRadius, latTurns.Abs().Mul(fixedpoint.FromInt(4)))
}

// PseudoLatitude returns the Slab shape's planar pseudo-latitude,
// point.Y / span, clamped to [-0.25, +0.25] turns (spec.md §4.4). ok is
// false for Sphere/Oblate, which use ToLatLon instead.
func (desc SurfaceDesc) PseudoLatitude(p worldfield.Point) (fixedpoint.Q16, bool) {
	if desc.Shape != Slab {
		return 0, false
	}
	quarter := fixedpoint.FromFloat(0.25)
	return p.Y.Div(desc.HalfExtentXZ).Clamp(-quarter, quarter), true
}
