// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, s string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lilotane.yaml")
	require.NoError(t, os.WriteFile(path, []byte(s), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	p := Default()
	require.NoError(t, p.Validate())
	assert.Equal(t, "gini", p.Solver)
	assert.True(t, p.Dominate)
}

func TestLoad(t *testing.T) {
	p := Default()
	path := write(t, `
max_depth: 12
solve_timeout: 1.5s
optimize: true
solver: gophersat
`)
	require.NoError(t, Load(path, &p))
	assert.Equal(t, 12, p.MaxDepth)
	assert.Equal(t, 1500*time.Millisecond, p.SolveTimeout)
	assert.True(t, p.Optimize)
	assert.Equal(t, "gophersat", p.Solver)
	assert.True(t, p.Dominate, "unset keys keep their value")

	data, err := p.Marshal()
	require.NoError(t, err)
	q := Params{}
	require.NoError(t, Load(write(t, string(data)), &q))
	assert.Equal(t, p, q)
}

func TestLoadErrors(t *testing.T) {
	p := Default()
	assert.Error(t, Load(write(t, "max_dept: 3\n"), &p))
	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.yaml"), &p))
}

func TestValidate(t *testing.T) {
	cases := []func(p *Params){
		func(p *Params) { p.MinDepth = -1 },
		func(p *Params) { p.MinDepth, p.MaxDepth = 5, 2 },
		func(p *Params) { p.SolveTimeout = -time.Second },
		func(p *Params) { p.AnytimeLayers = -2 },
		func(p *Params) { p.OptimizeFactor = -1 },
		func(p *Params) { p.Solver = "minisat" },
	}
	for i, c := range cases {
		p := Default()
		c(&p)
		assert.Error(t, p.Validate(), "case %d", i)
	}
}
