package game

import "time"

// Play-field geometry and timings of the standard game.
// Coordinates are in field pixels, origin top-left, y downward.
const (
	FieldWidth      = 640.0
	FieldHeight     = 960.0
	WallPad         = 64.0
	StatusBarHeight = 48.0
	DangerLine      = 84.0
	PreviewHeight   = 32.0

	DropCooldown  = 500 * time.Millisecond
	StartSettle   = 250 * time.Millisecond
	OverflowDelay = 1000 * time.Millisecond
	PopDuration   = 100 * time.Millisecond

	// NextTierSpan bounds the randomly drawn droppable tiers to [0, NextTierSpan).
	NextTierSpan = 5
)

// Surface properties shared by balls and walls.
const (
	BallFriction       = 0.006
	BallFrictionStatic = 0.006
	BallFrictionAir    = 0.0
	BallRestitution    = 0.1
)

// DefaultTiers is the standard ball size table, smallest first.
var DefaultTiers = []Tier{
	{Radius: 24, ScoreValue: 1},
	{Radius: 32, ScoreValue: 3},
	{Radius: 40, ScoreValue: 6},
	{Radius: 56, ScoreValue: 10},
	{Radius: 64, ScoreValue: 15},
	{Radius: 72, ScoreValue: 21},
	{Radius: 84, ScoreValue: 28},
	{Radius: 96, ScoreValue: 36},
	{Radius: 128, ScoreValue: 45},
	{Radius: 160, ScoreValue: 55},
	{Radius: 192, ScoreValue: 66},
	{Radius: 224, ScoreValue: 78},
}
