// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package gen contains generators for synthetic HTN problems.
//
// Package gen also supplies a slow solver, which returns a result after a
// random period of time unless it is cancelled first.
package gen
