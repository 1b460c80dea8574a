// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/domschrei/lilotane-sub000/gen"
	"github.com/domschrei/lilotane-sub000/htn"
	"github.com/domschrei/lilotane-sub000/htn/load"
)

func newGenCmd() *cobra.Command {
	var (
		size     int
		packages int
		seed     int64
	)
	cmd := &cobra.Command{
		Use:       "gen [flags] chain|ladder|transport|random <domain-out> <problem-out>",
		Short:     "Write a synthetic problem",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"chain", "ladder", "transport", "random"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if size < 1 || packages < 1 {
				return fmt.Errorf("size %d and packages %d must be positive", size, packages)
			}
			gen.Seed(seed)
			var p *htn.Problem
			switch args[0] {
			case "chain":
				p = gen.Chain(size)
			case "ladder":
				p = gen.Ladder(size)
			case "transport":
				p = gen.Transport(packages, size)
			case "random":
				p = gen.Random(size)
			default:
				return fmt.Errorf("unknown generator %q", args[0])
			}
			p.Name = fmt.Sprintf("%s-%d", args[0], size)
			return writeProblem(args[1], args[2], p)
		},
	}
	cmd.Flags().IntVarP(&size, "size", "n", 4, "chain length, ladder height, number of locations or of objects")
	cmd.Flags().IntVarP(&packages, "packages", "k", 2, "packages in a transport problem")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	return cmd
}

func writeProblem(domainPath, problemPath string, p *htn.Problem) error {
	df, err := os.Create(domainPath)
	if err != nil {
		return err
	}
	defer df.Close()
	pf, err := os.Create(problemPath)
	if err != nil {
		return err
	}
	defer pf.Close()
	if err := load.Write(df, pf, p); err != nil {
		return err
	}
	if err := df.Close(); err != nil {
		return err
	}
	return pf.Close()
}
