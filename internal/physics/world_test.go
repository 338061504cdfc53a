package physics

import (
	"testing"
	"time"

	"github.com/pokestack/backend/internal/game"
)

func ball(w *World, x, y, r float64) game.BodyID {
	id := w.CreateBody(game.Circle(r), game.NewVec2(x, y), game.DefaultBodyOptions())
	w.AddToWorld(id)
	return id
}

func floor(w *World, y float64) game.BodyID {
	opts := game.DefaultBodyOptions()
	opts.Static = true
	id := w.CreateBody(game.Rect(640, 64), game.NewVec2(320, y+32), opts)
	w.AddToWorld(id)
	return id
}

func run(w *World, d time.Duration) [][]game.CollisionPair {
	var batches [][]game.CollisionPair
	for elapsed := time.Duration(0); elapsed < d; elapsed += 16 * time.Millisecond {
		w.Step(16*time.Millisecond, func(p []game.CollisionPair) {
			batches = append(batches, p)
		})
	}
	return batches
}

func TestGravityPullsBallsDown(t *testing.T) {
	w := NewWorld()
	id := ball(w, 100, 100, 10)
	run(w, 200*time.Millisecond)

	pos, _ := w.Position(id)
	if pos.Y <= 100 {
		t.Errorf("ball did not fall: y=%.2f", pos.Y)
	}
	if pos.X != 100 {
		t.Errorf("ball drifted sideways: x=%.2f", pos.X)
	}
}

func TestBallRestsOnFloor(t *testing.T) {
	w := NewWorld()
	floor(w, 500)
	id := ball(w, 320, 400, 20)
	run(w, 3*time.Second)

	pos, _ := w.Position(id)
	if pos.Y > 480.5 || pos.Y < 478 {
		t.Errorf("ball y = %.2f, want resting near 480", pos.Y)
	}
	b, _ := w.Body(id)
	if b.Velocity.Magnitude() > 30 {
		t.Errorf("ball still moving at %.2f px/s", b.Velocity.Magnitude())
	}
}

func TestCollisionStartReportedOnce(t *testing.T) {
	w := NewWorld()
	fl := floor(w, 500)
	// Resting contact from the start: no bounce, so no second start.
	id := ball(w, 320, 479.9, 20)
	batches := run(w, 3*time.Second)

	n := 0
	for _, batch := range batches {
		for _, p := range batch {
			if (p.A == fl && p.B == id) || (p.A == id && p.B == fl) {
				n++
			}
		}
	}
	if n != 1 {
		t.Errorf("floor contact reported %d times, want 1", n)
	}
}

func TestStackedBallsTouch(t *testing.T) {
	w := NewWorld()
	floor(w, 500)
	low := ball(w, 320, 470, 30)
	high := ball(w, 320, 380, 30)
	batches := run(w, 2*time.Second)

	found := false
	for _, batch := range batches {
		for _, p := range batch {
			if newPairKey(p.A, p.B) == newPairKey(low, high) {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("stacked balls never reported a contact")
	}
	lp, _ := w.Position(low)
	hp, _ := w.Position(high)
	if hp.Y >= lp.Y {
		t.Errorf("upper ball sank below the lower one: %.2f >= %.2f", hp.Y, lp.Y)
	}
}

func TestGhostBodiesDoNotCollide(t *testing.T) {
	w := NewWorld()
	opts := game.DefaultBodyOptions()
	opts.Static = true
	opts.Ghost = true
	ghost := w.CreateBody(game.Circle(30), game.NewVec2(320, 100), opts)
	w.AddToWorld(ghost)
	id := ball(w, 320, 40, 20)

	batches := run(w, time.Second)
	if len(batches) != 0 {
		t.Errorf("ghost produced contacts: %v", batches)
	}
	if pos, _ := w.Position(id); pos.Y < 200 {
		t.Errorf("ball was blocked by the ghost: y=%.2f", pos.Y)
	}
	if pos, _ := w.Position(ghost); pos != game.NewVec2(320, 100) {
		t.Errorf("static ghost moved to %+v", pos)
	}
}

func TestRemovedBodyHasNoPosition(t *testing.T) {
	w := NewWorld()
	id := ball(w, 0, 0, 5)
	w.RemoveFromWorld(id)
	w.RemoveFromWorld(id)

	if _, ok := w.Position(id); ok {
		t.Errorf("removed body still reports a position")
	}
	if len(w.Bodies()) != 0 {
		t.Errorf("Bodies() = %v", w.Bodies())
	}
}

func TestBodyNotInWorldUntilAdded(t *testing.T) {
	w := NewWorld()
	id := w.CreateBody(game.Circle(5), game.NewVec2(10, 10), game.DefaultBodyOptions())
	if _, ok := w.Position(id); ok {
		t.Fatalf("body reported before AddToWorld")
	}
	run(w, 100*time.Millisecond)
	w.AddToWorld(id)
	if pos, _ := w.Position(id); pos != game.NewVec2(10, 10) {
		t.Errorf("detached body moved to %+v", pos)
	}
}

func TestCircleRectFromInside(t *testing.T) {
	opts := game.DefaultBodyOptions()
	a := &Body{Shape: game.Circle(10), Position: game.NewVec2(5, -20), Options: opts}
	b := &Body{Shape: game.Rect(100, 50), Position: game.NewVec2(0, 0)}

	c, ok := circleRect(a, b)
	if !ok {
		t.Fatalf("no contact for a circle inside the box")
	}
	if c.normal != game.NewVec2(0, 1) {
		t.Errorf("normal = %+v, want (0,1) pointing into the box", c.normal)
	}
	if c.depth != 15 {
		t.Errorf("depth = %v, want 15", c.depth)
	}
}
