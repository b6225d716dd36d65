package types

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const floatCmpEpsilon = 1e-6

// A column-major 4x4 matrix compatible with mgl32.
type Mat4 mgl32.Mat4

// Create a 4x4 identity matrix.
func Ident4() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Create a view matrix for an eye looking at center.
func LookAtV(eye, center, up Vec3) Mat4 {
	return Mat4(mgl32.LookAtV(mgl32.Vec3(eye), mgl32.Vec3(center), mgl32.Vec3(up)))
}

// Multiply matrix with a 4 component column vector.
func (m Mat4) Mul4x1(v Vec4) Vec4 {
	return Vec4(mgl32.Mat4(m).Mul4x1(mgl32.Vec4(v)))
}

func (m Mat4) String() string {
	return fmt.Sprintf(
		"[%3.3f %3.3f %3.3f %3.3f]\n[%3.3f %3.3f %3.3f %3.3f]\n[%3.3f %3.3f %3.3f %3.3f]\n[%3.3f %3.3f %3.3f %3.3f]",
		m[0], m[4], m[8], m[12],
		m[1], m[5], m[9], m[13],
		m[2], m[6], m[10], m[14],
		m[3], m[7], m[11], m[15],
	)
}
