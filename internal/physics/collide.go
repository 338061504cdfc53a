package physics

import (
	"math"

	"github.com/pokestack/backend/internal/game"
)

// contact is an overlap between two bodies. normal points from a to b.
type contact struct {
	a, b   *Body
	normal game.Vec2
	depth  float64
}

// detect returns the contact between a and b when they overlap.
// Rect-rect overlaps are not handled; rects only ever appear as static walls.
func detect(a, b *Body) (contact, bool) {
	switch {
	case a.Shape.Kind == game.ShapeCircle && b.Shape.Kind == game.ShapeCircle:
		return circleCircle(a, b)
	case a.Shape.Kind == game.ShapeCircle && b.Shape.Kind == game.ShapeRect:
		return circleRect(a, b)
	case a.Shape.Kind == game.ShapeRect && b.Shape.Kind == game.ShapeCircle:
		c, ok := circleRect(b, a)
		if !ok {
			return c, false
		}
		return contact{a: a, b: b, normal: c.normal.Times(-1), depth: c.depth}, true
	}
	return contact{}, false
}

func circleCircle(a, b *Body) (contact, bool) {
	d := b.Position.Minus(a.Position)
	r := a.Shape.Radius + b.Shape.Radius
	distSq := d.MagnitudeSquared()
	if distSq >= r*r {
		return contact{}, false
	}
	dist := math.Sqrt(distSq)
	normal := game.NewVec2(0, 1)
	if dist > 0 {
		normal = d.Times(1 / dist)
	}
	return contact{a: a, b: b, normal: normal, depth: r - dist}, true
}

// circleRect tests circle a against axis-aligned box b centred on its position.
func circleRect(a, b *Body) (contact, bool) {
	hw, hh := b.Shape.Width/2, b.Shape.Height/2
	local := a.Position.Minus(b.Position)
	closest := game.NewVec2(clamp(local.X, -hw, hw), clamp(local.Y, -hh, hh))

	inside := closest == local
	if inside {
		// Centre inside the box: push out along the shallowest axis.
		dx := hw - math.Abs(local.X)
		dy := hh - math.Abs(local.Y)
		if dx < dy {
			n := game.NewVec2(-math.Copysign(1, local.X), 0)
			return contact{a: a, b: b, normal: n, depth: dx + a.Shape.Radius}, true
		}
		n := game.NewVec2(0, -math.Copysign(1, local.Y))
		return contact{a: a, b: b, normal: n, depth: dy + a.Shape.Radius}, true
	}

	d := closest.Minus(local)
	distSq := d.MagnitudeSquared()
	if distSq >= a.Shape.Radius*a.Shape.Radius {
		return contact{}, false
	}
	dist := math.Sqrt(distSq)
	return contact{a: a, b: b, normal: d.Times(1 / dist), depth: a.Shape.Radius - dist}, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
