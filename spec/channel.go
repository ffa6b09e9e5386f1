// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spec

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Channel names a visual dimension a mark encodes data onto.
type Channel string

const (
	X             Channel = "x"
	Y             Channel = "y"
	X1            Channel = "x1"
	Y1            Channel = "y1"
	Series        Channel = "series"
	Color         Channel = "color"
	Opacity       Channel = "opacity"
	ShapeCh       Channel = "shape"
	EnterType     Channel = "enterType"
	EnterEasing   Channel = "enterEasing"
	EnterDuration Channel = "enterDuration"
	EnterDelay    Channel = "enterDelay"
	Enter         Channel = "enter"
	Size          Channel = "size"
	TooltipCh     Channel = "tooltip"
	TitleCh       Channel = "title"
	Key           Channel = "key"
	GroupKey      Channel = "groupKey"
	LabelCh       Channel = "label"
	Position      Channel = "position"

	TextCh       Channel = "text"
	FontSize     Channel = "fontSize"
	FontWeight   Channel = "fontWeight"
	FontStyle    Channel = "fontStyle"
	Rotate       Channel = "rotate"
	TextAlign    Channel = "textAlign"
	TextBaseline Channel = "textBaseline"
	Src          Channel = "src"

	Source Channel = "source"
	Target Channel = "target"
	Value  Channel = "value"
)

// baseChannels are the channels every kind (other than forceGraph)
// exposes.
var baseChannels = []Channel{
	X, Y, X1, Y1, Series, Color, Opacity, ShapeCh,
	EnterType, EnterEasing, EnterDuration, EnterDelay, Enter,
	Size, TooltipCh, TitleCh, Key, GroupKey, LabelCh, Position,
}

// Positional reports whether ch is a position channel whose stacked
// encodings expand into indexed sub-channels rather than overriding
// each other.
func (ch Channel) Positional() bool {
	switch ch {
	case X, Y, Position:
		return true
	}
	return false
}

// Enter reports whether ch is one of the enter* animation channels.
func (ch Channel) Enter() bool {
	return strings.HasPrefix(string(ch), "enter")
}

// Split separates a trailing index from ch, so "position2" splits
// into ("position", 2) and "x" into ("x", 0).
func (ch Channel) Split() (Channel, int) {
	s := string(ch)
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) || i == 0 {
		return ch, 0
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return ch, 0
	}
	return Channel(s[:i]), n
}

// Sub returns the i'th stacked sub-channel of a positional channel.
// Sub(0) is ch itself; x and y number their sub-channels x1, x2, ...
// while position numbers them position1, position2, ....
func (ch Channel) Sub(i int) Channel {
	if i == 0 {
		if ch == Position {
			return "position0"
		}
		return ch
	}
	return Channel(string(ch) + strconv.Itoa(i))
}

// Prefixed returns ch prefixed and capitalized, as in node + color =
// nodeColor.
func (ch Channel) Prefixed(prefix string) Channel {
	r, n := utf8.DecodeRuneInString(string(ch))
	return Channel(prefix + string(unicode.ToUpper(r)) + string(ch)[n:])
}

// Unprefixed strips prefix from ch, reversing Prefixed. It returns
// false if ch does not carry prefix.
func (ch Channel) Unprefixed(prefix string) (Channel, bool) {
	s := string(ch)
	if !strings.HasPrefix(s, prefix) || len(s) == len(prefix) {
		return ch, false
	}
	r, n := utf8.DecodeRuneInString(s[len(prefix):])
	if !unicode.IsUpper(r) {
		return ch, false
	}
	return Channel(string(unicode.ToLower(r)) + s[len(prefix)+n:]), true
}
