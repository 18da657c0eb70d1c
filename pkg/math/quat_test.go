package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if q.X != 0 || q.Y != 0 || q.Z != 0 || q.W != 1 {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	q := Quat{X: 1, Y: 2, Z: 3, W: 4}
	n := q.Normalize()

	length := float32(math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W)))
	if math.Abs(float64(length-1.0)) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

func TestQuatToMat4(t *testing.T) {
	m := QuatIdentity().ToMat4()

	identity := Identity()
	for i := 0; i < 16; i++ {
		if math.Abs(float64(m[i]-identity[i])) > 0.0001 {
			t.Errorf("Identity quat should produce identity matrix, element %d: got %v, want %v", i, m[i], identity[i])
		}
	}
}

func TestQuatFromMat3RoundTrip(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{X: 1, Y: 1, Z: 0}.Normalize(), 2.2)
	m := q.ToMat4()
	got := QuatFromMat3([9]float32{m[0], m[1], m[2], m[4], m[5], m[6], m[8], m[9], m[10]})

	if d := abs(got.Dot(q)); d < 0.9999 {
		t.Errorf("QuatFromMat3: got %v, want %v", got, q)
	}
}

func TestQuatInverse(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 0, Z: 1}, 0.8)
	r := q.Mul(q.Inverse())
	if math.Abs(float64(r.W-1)) > 0.0001 || r.Angle() > 0.001 {
		t.Errorf("q * q^-1 should be identity, got %v", r)
	}
}

func TestQuatAngle(t *testing.T) {
	tests := []struct {
		name  string
		q     Quat
		angle float64
	}{
		{"identity", QuatIdentity(), 0},
		{"negated identity", Quat{W: -1}, 0},
		{"quarter turn", QuatFromAxisAngle(Vec3{X: 1}, float32(math.Pi/2)), math.Pi / 2},
		{"negated quarter turn", Quat{X: -0.70710677, W: -0.70710677}, math.Pi / 2},
		{"three quarter turn", QuatFromAxisAngle(Vec3{Z: 1}, float32(3*math.Pi/2)), math.Pi / 2},
		{"unnormalized overshoot", Quat{W: 1.0000001}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Angle(); math.Abs(float64(got)-tt.angle) > 0.001 {
				t.Errorf("Angle: expected %v, got %v", tt.angle, got)
			}
		})
	}
}

func TestQuatFromAxisAngle(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{X: 0, Y: 1, Z: 0}, float32(math.Pi/2))

	expectedW := float32(math.Cos(math.Pi / 4))
	expectedY := float32(math.Sin(math.Pi / 4))

	if math.Abs(float64(q.W-expectedW)) > 0.001 {
		t.Errorf("QuatFromAxisAngle W: expected %v, got %v", expectedW, q.W)
	}
	if math.Abs(float64(q.Y-expectedY)) > 0.001 {
		t.Errorf("QuatFromAxisAngle Y: expected %v, got %v", expectedY, q.Y)
	}
}
