package domain

import (
	"fmt"
	"strings"
)

// Position is where a configuration banner is pinned on the host page.
type Position string

// Position constants
const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
	PositionLeft   Position = "left"
	PositionRight  Position = "right"
)

// Positions lists every position in the order their style rules are emitted.
var Positions = []Position{PositionTop, PositionBottom, PositionLeft, PositionRight}

// Valid reports whether p is one of the known positions.
func (p Position) Valid() bool {
	switch p {
	case PositionTop, PositionBottom, PositionLeft, PositionRight:
		return true
	}
	return false
}

// ParsePosition parses a position name, case-insensitively.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown banner position %q", s)
	}
	return p, nil
}
