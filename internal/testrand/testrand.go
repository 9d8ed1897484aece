// Copyright 2026 The shardcore Authors
// This file is part of the shardcore chunks library.
//
// The shardcore chunks library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The shardcore chunks library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the shardcore chunks library. If not, see <http://www.gnu.org/licenses/>.

// Package testrand provides the injectable randomness source the Request
// Planner needs for block-producer selection and the prefer-peer coin
// (DESIGN NOTES §9 of spec.md: this must be injectable, never seeded from
// per-call now()).
package testrand

import "math/rand"

// Source picks an index in [0, n) and flips a fair coin. Production code
// wires *Default (a *rand.Rand seeded once at startup); tests wire a
// deterministic or scripted Source.
type Source interface {
	Intn(n int) int
	Bool() bool
}

// Default wraps math/rand.Rand to satisfy Source.
type Default struct {
	R *rand.Rand
}

func NewDefault(seed int64) *Default {
	return &Default{R: rand.New(rand.NewSource(seed))}
}

func (d *Default) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return d.R.Intn(n)
}

func (d *Default) Bool() bool { return d.R.Intn(2) == 0 }
