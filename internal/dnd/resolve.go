// Package dnd decides where a dragged card or list lands. It knows nothing
// about rendering: callers describe what is under the pointer and where
// the lists are drawn, and a chain of rules picks the destination.
package dnd

import "github.com/Makepad-fr/board/internal/model"

type Point struct{ X, Y int }

// Rect is a half-open screen rectangle.
type Rect struct{ X, Y, W, H int }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Container is a rendered list column.
type Container struct {
	ListID int
	Bounds Rect
}

type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetList
	TargetCard
)

// Target is the element directly under the pointer, if any.
type Target struct {
	Kind TargetKind
	ID   int
}

// Drop describes the end of a drag.
type Drop struct {
	Target Target
	Point  Point
}

// Scene is the board as the user saw it when they let go. Containers are
// in layout order.
type Scene struct {
	Board      *model.Board
	Containers []Container
}

// Destination is where a card goes: a list and a position in it.
type Destination struct {
	ListID int
	Index  int
}

type Rule interface {
	Resolve(s Scene, d Drop) (Destination, bool)
}

type RuleFunc func(s Scene, d Drop) (Destination, bool)

func (f RuleFunc) Resolve(s Scene, d Drop) (Destination, bool) { return f(s, d) }

// Resolver tries rules in order; the first one that matches wins. When
// none matches the drop is aborted.
type Resolver struct {
	rules []Rule
}

func NewResolver(rules ...Rule) *Resolver {
	return &Resolver{rules: rules}
}

// DefaultResolver checks an explicit list target, then a card target, then
// falls back to hit-testing the drop point against the list columns.
func DefaultResolver() *Resolver {
	return NewResolver(ListTarget, CardTarget, HitTest)
}

func (r *Resolver) Resolve(s Scene, d Drop) (Destination, bool) {
	if s.Board == nil {
		return Destination{}, false
	}
	for _, rule := range r.rules {
		if dest, ok := rule.Resolve(s, d); ok {
			return dest, true
		}
	}
	return Destination{}, false
}

// ListTarget: dropped on a list, so the card goes to the end of it.
var ListTarget = RuleFunc(func(s Scene, d Drop) (Destination, bool) {
	if d.Target.Kind != TargetList {
		return Destination{}, false
	}
	return endOf(s.Board, d.Target.ID)
})

// CardTarget: dropped on a card, so the card takes that card's place.
var CardTarget = RuleFunc(func(s Scene, d Drop) (Destination, bool) {
	if d.Target.Kind != TargetCard {
		return Destination{}, false
	}
	l, i := s.Board.FindCard(d.Target.ID)
	if l == nil {
		return Destination{}, false
	}
	return Destination{ListID: l.ID, Index: i}, true
})

// HitTest: the first column containing the drop point, at its end.
var HitTest = RuleFunc(func(s Scene, d Drop) (Destination, bool) {
	for _, c := range s.Containers {
		if c.Bounds.Contains(d.Point) {
			return endOf(s.Board, c.ListID)
		}
	}
	return Destination{}, false
})

func endOf(b *model.Board, listID int) (Destination, bool) {
	l := b.FindList(listID)
	if l == nil {
		return Destination{}, false
	}
	return Destination{ListID: l.ID, Index: len(l.Cards)}, true
}

// ResolveList turns a list drag into from/to positions in the board's list
// sequence. Only the target's identity counts; a card target stands for
// its list.
func ResolveList(b *model.Board, listID int, t Target) (from, to int, ok bool) {
	if b == nil {
		return 0, 0, false
	}
	from = b.ListIndex(listID)
	if from < 0 {
		return 0, 0, false
	}
	switch t.Kind {
	case TargetList:
		to = b.ListIndex(t.ID)
	case TargetCard:
		l, _ := b.FindCard(t.ID)
		if l == nil {
			return 0, 0, false
		}
		to = b.ListIndex(l.ID)
	default:
		return 0, 0, false
	}
	if to < 0 {
		return 0, 0, false
	}
	return from, to, true
}
