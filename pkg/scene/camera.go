package scene

import (
	"math"

	"github.com/vcmtracer/vcmtracer/pkg/core"
)

// Camera is a pinhole perspective camera, generalized from the teacher's
// fixed lower-left-corner viewport camera into the jittered,
// image-plane-addressable camera spec.md §6 names as an external
// collaborator (`JitteredCameraRay`, `WorldToImage`, `imagePlaneDistance`,
// `position`, `forward`, `viewport{Width,Height}`).
type Camera struct {
	Position core.Vec3
	Forward  core.Vec3
	Right    core.Vec3
	Up       core.Vec3

	ImagePlaneDistance float64
	ViewportWidth      float64
	ViewportHeight     float64

	ImageWidth  int
	ImageHeight int
}

// NewCamera builds a camera looking from lookFrom toward lookAt with the
// given vertical field of view (degrees) and image resolution.
func NewCamera(lookFrom, lookAt, worldUp core.Vec3, vfovDegrees float64, imageWidth, imageHeight int) *Camera {
	forward := lookAt.Subtract(lookFrom).Normalize()
	right := forward.Cross(worldUp).Normalize()
	up := right.Cross(forward)

	theta := vfovDegrees * math.Pi / 180.0
	viewportHeight := 2.0 * math.Tan(theta/2.0)
	aspect := float64(imageWidth) / float64(imageHeight)
	viewportWidth := viewportHeight * aspect

	return &Camera{
		Position:           lookFrom,
		Forward:            forward,
		Right:              right,
		Up:                 up,
		ImagePlaneDistance: 1.0,
		ViewportWidth:      viewportWidth,
		ViewportHeight:     viewportHeight,
		ImageWidth:         imageWidth,
		ImageHeight:        imageHeight,
	}
}

// JitteredCameraRay generates a primary ray through pixel (x,y), jittered
// within the pixel footprint by a sample drawn from rng. seed is accepted
// for interface parity with spec.md §6 (per-worker deterministic
// reseeding happens at the RNG construction site, not per ray) and is
// unused here.
func (c *Camera) JitteredCameraRay(rng core.Sampler, seed uint64, x, y int) core.Ray {
	jitter := rng.Get2D()
	px := (float64(x) + jitter.X) / float64(c.ImageWidth)
	py := (float64(y) + jitter.Y) / float64(c.ImageHeight)

	// (px,py) in [0,1); map to viewport-centered offsets, y flipped so
	// image row 0 is the top of the viewport.
	u := (px - 0.5) * c.ViewportWidth
	v := (0.5 - py) * c.ViewportHeight

	pointOnPlane := c.Position.
		Add(c.Forward.Multiply(c.ImagePlaneDistance)).
		Add(c.Right.Multiply(u)).
		Add(c.Up.Multiply(v))

	direction := pointOnPlane.Subtract(c.Position).Normalize()
	return core.NewRay(c.Position, direction)
}

// WorldToImage projects a world point onto the image plane, returning the
// pixel coordinates and whether the point is in front of the camera and
// within the image bounds (used by the VCM light-subpath's
// connect-to-camera strategy, spec.md §4.4 Phase 1).
func (c *Camera) WorldToImage(p core.Vec3) (x, y int, onScreen bool) {
	rel := p.Subtract(c.Position)
	depth := rel.Dot(c.Forward)
	if depth <= 1e-6 {
		return 0, 0, false
	}

	scale := c.ImagePlaneDistance / depth
	u := rel.Dot(c.Right) * scale
	v := rel.Dot(c.Up) * scale

	px := u/c.ViewportWidth + 0.5
	py := 0.5 - v/c.ViewportHeight

	x = int(px * float64(c.ImageWidth))
	y = int(py * float64(c.ImageHeight))
	if x < 0 || x >= c.ImageWidth || y < 0 || y >= c.ImageHeight {
		return 0, 0, false
	}
	return x, y, true
}

// ImageToSolidAngle returns the Jacobian factor converting a uniform image
// sample's area-measure density into a solid-angle density at the camera,
// used to initialize dVCM for a camera subpath (spec.md §4.4 Phase 2:
// "dVCM = N / imageToSolidAngle") and by the light-subpath's
// connect-to-camera strategy. cosTheta is the cosine between the camera's
// forward axis and the direction toward (or from, for the connection case)
// the image point; callers that already have it avoid recomputing it here.
func (c *Camera) ImageToSolidAngle(cosTheta float64) float64 {
	if cosTheta <= 0 {
		return 0
	}
	imagePointToCameraDist := c.ImagePlaneDistance / cosTheta
	return imagePointToCameraDist * imagePointToCameraDist / cosTheta
}
