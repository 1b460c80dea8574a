// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package planner

import (
	"errors"

	"github.com/domschrei/lilotane-sub000/encode"
)

var (
	// ErrUnsolvable is returned when the problem provably has no plan.
	ErrUnsolvable = errors.New("problem is unsolvable")
	// ErrExhausted is returned when the depth or time budget runs out.
	ErrExhausted = errors.New("search budget exhausted")
	// ErrInterrupted is returned when the context is done.
	ErrInterrupted = errors.New("search interrupted")
)

// InvariantError reports an internal inconsistency.
type InvariantError = encode.InvariantError
