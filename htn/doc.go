// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package htn holds the signature model of lifted HTN problems: interned
// names, operator and fact signatures, q-constants and the resolved
// Instance the planner grounds.
package htn
