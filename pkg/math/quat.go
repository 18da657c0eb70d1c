package math

import "github.com/chewxy/math32"

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	halfAngle := angle / 2
	s := math32.Sin(halfAngle)
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: math32.Cos(halfAngle),
	}
}

// QuatFromMat3 converts an orthonormal 3x3 rotation matrix to a quaternion.
// The matrix is column-major: m[col*3+row].
func QuatFromMat3(m [9]float32) Quat {
	r00, r10, r20 := m[0], m[1], m[2]
	r01, r11, r21 := m[3], m[4], m[5]
	r02, r12, r22 := m[6], m[7], m[8]

	trace := r00 + r11 + r22

	var q Quat
	switch {
	case trace > 0:
		s := math32.Sqrt(trace+1) * 2
		q.W = 0.25 * s
		q.X = (r21 - r12) / s
		q.Y = (r02 - r20) / s
		q.Z = (r10 - r01) / s
	case r00 > r11 && r00 > r22:
		s := math32.Sqrt(1+r00-r11-r22) * 2
		q.W = (r21 - r12) / s
		q.X = 0.25 * s
		q.Y = (r01 + r10) / s
		q.Z = (r02 + r20) / s
	case r11 > r22:
		s := math32.Sqrt(1+r11-r00-r22) * 2
		q.W = (r02 - r20) / s
		q.X = (r01 + r10) / s
		q.Y = 0.25 * s
		q.Z = (r12 + r21) / s
	default:
		s := math32.Sqrt(1+r22-r00-r11) * 2
		q.W = (r10 - r01) / s
		q.X = (r02 + r20) / s
		q.Y = (r12 + r21) / s
		q.Z = 0.25 * s
	}
	return q.Normalize()
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Conjugate returns (-x, -y, -z, w).
func (q Quat) Conjugate() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Inverse returns the multiplicative inverse.
func (q Quat) Inverse() Quat {
	n := q.Dot(q)
	if n == 0 {
		return QuatIdentity()
	}
	c := q.Conjugate()
	return Quat{X: c.X / n, Y: c.Y / n, Z: c.Z / n, W: c.W / n}
}

// Angle returns the rotation angle in radians, in [0, pi], as 2*acos(|w|).
// Taking |w| rather than w makes q and -q, which describe the same
// rotation, yield the same angle instead of a and 2*pi-a.
func (q Quat) Angle() float32 {
	w := math32.Abs(q.W)
	if w > 1 {
		w = 1
	}
	return 2 * math32.Acos(w)
}

// ToMat4 converts the quaternion to a 4x4 rotation matrix.
func (q Quat) ToMat4() Mat4 {
	q = q.Normalize()

	xx := q.X * q.X
	xy := q.X * q.Y
	xz := q.X * q.Z
	xw := q.X * q.W
	yy := q.Y * q.Y
	yz := q.Y * q.Z
	yw := q.Y * q.W
	zz := q.Z * q.Z
	zw := q.Z * q.W

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + zw), 2 * (xz - yw), 0,
		2 * (xy - zw), 1 - 2*(xx+zz), 2 * (yz + xw), 0,
		2 * (xz + yw), 2 * (yz - xw), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// Mul multiplies two quaternions (combines rotations).
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// Array returns the components as [x, y, z, w].
func (q Quat) Array() [4]float32 {
	return [4]float32{q.X, q.Y, q.Z, q.W}
}
