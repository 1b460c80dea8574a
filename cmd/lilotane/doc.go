// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package main implements the lilotane command.
//
//  lilotane [flags] <domain> <problem>
//  lilotane plan [flags] <domain> <problem>
//
// reads a YAML domain and problem, which may be gzipped or bzip2ed, and
// prints a plan in the hierarchical plan format
//
//  ==>
//  0 drive p1 l1 l2
//  root 1
//  1 deliver p1 l2 -> m-deliver 0
//  <==
//
// The exit code is 0 if a plan was found and 1 otherwise.  A plan found
// before the search ran out of time is still printed.
//
// Flags override the values read from a YAML file given with --config:
//
//    --min-depth, --max-depth       layers searched
//    --solve-timeout                limit on each solver call
//    --plan-timeout                 limit on finding the first plan
//    --anytime-layers               layers added after the first plan
//    --optimize, --optimize-factor  cost minimization
//    --virtualize, --dominate, --nonprimitive-support, --qconst-mutex,
//    --check-unsolvable             encoding options
//    --solver                       gini or gophersat
//    --dump                         write the formula in icnf format
//
// gophersat cannot be interrupted: a call cut off by a timeout keeps
// searching in the background, and the next call waits for it to finish.
// lilotane exits without waiting for such a search.
//
//  lilotane replay [--solver s] [--timeout d] <formula.icnf>
//
// re-solves a dumped formula, printing one "s" line per solver call.
//
//  lilotane gen chain|ladder|transport|random <domain-out> <problem-out>
//
// writes a synthetic problem.
package main
