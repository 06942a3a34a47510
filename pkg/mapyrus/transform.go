package mapyrus

import "math"

// AffineTransform is a 2D affine transform holding the six-element
// matrix [a b; c d] with translation (e, f). The zero value is not
// useful; start from IdentityTransform.
type AffineTransform struct {
	a, b, c, d, e, f float64
}

// IdentityTransform returns the identity transform.
func IdentityTransform() AffineTransform {
	return AffineTransform{a: 1, d: 1}
}

// Apply transforms the point (x, y).
func (t AffineTransform) Apply(x, y float64) (float64, float64) {
	return t.a*x + t.c*y + t.e, t.b*x + t.d*y + t.f
}

// Scaled returns t with a scale by (sx, sy) applied before it.
func (t AffineTransform) Scaled(sx, sy float64) AffineTransform {
	return t.concat(AffineTransform{a: sx, d: sy})
}

// Rotated returns t with a rotation by angle radians applied before it.
func (t AffineTransform) Rotated(angle float64) AffineTransform {
	sin, cos := math.Sincos(angle)
	return t.concat(AffineTransform{a: cos, b: sin, c: -sin, d: cos})
}

// Translated returns t with a translation by (tx, ty) applied before it.
func (t AffineTransform) Translated(tx, ty float64) AffineTransform {
	return t.concat(AffineTransform{a: 1, d: 1, e: tx, f: ty})
}

// concat returns the transform applying m first, then t.
func (t AffineTransform) concat(m AffineTransform) AffineTransform {
	return AffineTransform{
		a: t.a*m.a + t.c*m.b,
		b: t.b*m.a + t.d*m.b,
		c: t.a*m.c + t.c*m.d,
		d: t.b*m.c + t.d*m.d,
		e: t.a*m.e + t.c*m.f + t.e,
		f: t.b*m.e + t.d*m.f + t.f,
	}
}
