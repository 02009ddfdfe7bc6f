package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	result := m.TransformPoint([3]float32{1, 2, 3})

	expected := [3]float32{11, 22, 33}
	if result != expected {
		t.Errorf("TransformPoint: got %v, want %v", result, expected)
	}
}

func TestTRSOrder(t *testing.T) {
	// Scale first, then rotate 90 degrees about Y, then translate.
	rot := QuatFromAxisAngle(Vec3{0, 1, 0}, float32(math.Pi/2))
	m := TRS(Vec3{10, 0, 0}, rot, Vec3{2, 2, 2})

	got := m.TransformVec3(Vec3{1, 0, 0})
	want := Vec3{10, 0, -2}
	if abs(got.X-want.X) > 0.001 || abs(got.Y-want.Y) > 0.001 || abs(got.Z-want.Z) > 0.001 {
		t.Errorf("TRS: got %v, want %v", got, want)
	}
}

func TestInverse(t *testing.T) {
	rot := QuatFromAxisAngle(Vec3{0, 0, 1}, 0.7)
	m := TRS(Vec3{3, -4, 5}, rot, Vec3{1, 2, 3})

	if !m.Mul(m.Inverse()).ApproxEqual(Identity(), 1e-4) {
		t.Errorf("M * inverse(M) should be identity, got %v", m.Mul(m.Inverse()))
	}
}

func TestInverseSingular(t *testing.T) {
	if Scale(0, 1, 1).Inverse() != Identity() {
		t.Error("singular matrix should invert to identity")
	}
}

func TestTranslation(t *testing.T) {
	got := Translate(1, 2, 3).Translation()
	if got != (Vec3{1, 2, 3}) {
		t.Errorf("Translation: got %v", got)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
