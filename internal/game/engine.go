package game

import "time"

// BodyID is the physics engine's identity for a body.
type BodyID uint64

// ShapeKind selects the body geometry.
type ShapeKind int

const (
	ShapeCircle ShapeKind = iota
	ShapeRect
)

// Shape describes a body's geometry. Circles use Radius, rects use Width/Height.
type Shape struct {
	Kind   ShapeKind
	Radius float64
	Width  float64
	Height float64
}

func Circle(radius float64) Shape {
	return Shape{Kind: ShapeCircle, Radius: radius}
}

func Rect(width, height float64) Shape {
	return Shape{Kind: ShapeRect, Width: width, Height: height}
}

// BodyOptions are the physical properties passed on body creation.
type BodyOptions struct {
	Static         bool
	Ghost          bool // collides with nothing
	Friction       float64
	FrictionStatic float64
	FrictionAir    float64
	Restitution    float64
	Label          string
}

// DefaultBodyOptions returns the standard ball surface.
func DefaultBodyOptions() BodyOptions {
	return BodyOptions{
		Friction:       BallFriction,
		FrictionStatic: BallFrictionStatic,
		FrictionAir:    BallFrictionAir,
		Restitution:    BallRestitution,
	}
}

// CollisionPair is two bodies that started touching during a step.
type CollisionPair struct {
	A BodyID
	B BodyID
}

// PhysicsEngine is the rigid-body world the session drives.
type PhysicsEngine interface {
	CreateBody(shape Shape, pos Vec2, opts BodyOptions) BodyID
	AddToWorld(id BodyID)
	RemoveFromWorld(id BodyID)
	SetVelocity(id BodyID, v Vec2)
	SetPosition(id BodyID, p Vec2)
	Position(id BodyID) (Vec2, bool)
}

// Stepper is implemented by engines the session advances itself.
// onCollisionStart is called synchronously, at most once per step.
type Stepper interface {
	Step(dt time.Duration, onCollisionStart func([]CollisionPair))
}
