package scene

import (
	"fmt"
	"math"

	"github.com/achilleasa/vtkshot/types"
	"gonum.org/v1/gonum/spatial/r3"
)

// Default camera view angle in degrees.
const DefaultViewAngle float32 = 30

// The camera type controls the scene camera. Positions are expressed in the
// scene's local coordinate system.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	ViewMat types.Mat4

	// Camera FOV
	FOV float32

	// Clipping range.
	Near float32
	Far  float32
}

func NewCamera(fov float32) *Camera {
	return &Camera{
		ViewMat:  types.Ident4(),
		Position: types.Vec3{0, 0, 1},
		LookAt:   types.Vec3{0, 0, 0},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
		Near:     0.01,
		Far:      1000,
	}
}

// Reset the camera so that the given bounds are fully visible. The camera
// looks down the -Z axis towards the bounds center with +Y as the up vector
// and is placed far enough for the bounding sphere to fit the view angle.
func (c *Camera) Reset(bounds r3.Box) {
	center := r3.Scale(0.5, r3.Add(bounds.Min, bounds.Max))
	radius := 0.5 * r3.Norm(r3.Sub(bounds.Max, bounds.Min))
	if radius == 0 {
		radius = 0.5
	}
	distance := radius / math.Sin(float64(c.FOV)*math.Pi/360)

	c.LookAt = types.XYZ(float32(center.X), float32(center.Y), float32(center.Z))
	c.Position = c.LookAt.Add(types.Vec3{0, 0, float32(distance)})
	c.Up = types.Vec3{0, 1, 0}
	c.ResetClippingRange(bounds)
}

// Set the near and far clipping planes so that the bounding sphere of the
// given bounds lies between them.
func (c *Camera) ResetClippingRange(bounds r3.Box) {
	center := r3.Scale(0.5, r3.Add(bounds.Min, bounds.Max))
	radius := 0.5 * r3.Norm(r3.Sub(bounds.Max, bounds.Min))
	if radius == 0 {
		radius = 0.5
	}

	pos := r3.Vec{X: float64(c.Position[0]), Y: float64(c.Position[1]), Z: float64(c.Position[2])}
	distance := r3.Norm(r3.Sub(center, pos))

	far := distance + 1.1*radius
	near := math.Max(distance-1.1*radius, 0.001*far)
	c.Near, c.Far = float32(near), float32(far)
}

// Rotate the camera about the view up vector centered at the focal point.
func (c *Camera) Azimuth(degrees float32) {
	q := types.QuatFromAxisAngle(c.Up.Normalize(), degrees*math.Pi/180)
	c.Position = c.LookAt.Add(q.Rotate(c.Position.Sub(c.LookAt)))
}

// Rotate the camera about the cross product of the view direction and the
// view up vector centered at the focal point. The up vector is rotated along
// so it stays orthogonal to the view direction.
func (c *Camera) Elevation(degrees float32) {
	right := c.ViewDir().Cross(c.Up).Normalize()
	q := types.QuatFromAxisAngle(right, -degrees*math.Pi/180)
	c.Position = c.LookAt.Add(q.Rotate(c.Position.Sub(c.LookAt)))
	c.Up = q.Rotate(c.Up).Normalize()
}

// Get the normalized direction of projection.
func (c *Camera) ViewDir() types.Vec3 {
	return c.LookAt.Sub(c.Position).Normalize()
}

// Update the view matrix.
func (c *Camera) Update() {
	c.ViewMat = types.LookAtV(c.Position, c.LookAt, c.Up)
}

// Transform a point to eye space where the camera sits at the origin looking
// down -Z with +Y as the up vector.
func (c *Camera) ToEye(p types.Vec3) types.Vec3 {
	return c.ViewMat.Mul4x1(p.Vec4(1)).Vec3()
}

// Transform a direction to eye space.
func (c *Camera) DirToEye(d types.Vec3) types.Vec3 {
	return c.ViewMat.Mul4x1(d.Vec4(0)).Vec3()
}

func (c *Camera) String() string {
	return fmt.Sprintf(
		"position (%3.3f, %3.3f, %3.3f), focal point (%3.3f, %3.3f, %3.3f), up (%3.3f, %3.3f, %3.3f), clipping range [%3.3f, %3.3f]",
		c.Position[0], c.Position[1], c.Position[2],
		c.LookAt[0], c.LookAt[1], c.LookAt[2],
		c.Up[0], c.Up[1], c.Up[2],
		c.Near, c.Far,
	)
}
