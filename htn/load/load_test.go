// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package load

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domschrei/lilotane-sub000/htn"
)

const domain = `
name: toy
predicates:
  p: []
actions:
  - name: a
    eff: ["(p)"]
`

const problem = `
name: one
goal: ["(p)"]
tasks: ["(a)"]
`

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	dp := filepath.Join(dir, "domain.yaml")
	pp := filepath.Join(dir, "problem.yaml.gz")
	require.NoError(t, os.WriteFile(dp, []byte(domain), 0o644))

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(problem))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(pp, buf.Bytes(), 0o644))

	p, err := Files(context.Background(), dp, pp)
	require.NoError(t, err)
	assert.Equal(t, "toy", p.Domain.Name)
	assert.Equal(t, []string{"(p)"}, p.Goal)

	in, err := htn.NewInstance(p)
	require.NoError(t, err)
	assert.Len(t, in.Network, 1)
}

func TestUnknownField(t *testing.T) {
	_, err := Domain(strings.NewReader("name: x\nactoins: []\n"))
	assert.Error(t, err)
}

func TestMissingFile(t *testing.T) {
	_, err := Files(context.Background(), "/nonexistent/d.yaml", "/nonexistent/p.yaml")
	assert.Error(t, err)
}

func TestWriteRoundTrip(t *testing.T) {
	d, err := Domain(strings.NewReader(domain))
	require.NoError(t, err)
	p, err := Problem(strings.NewReader(problem))
	require.NoError(t, err)
	p.Domain = *d

	var dw, pw bytes.Buffer
	require.NoError(t, Write(&dw, &pw, p))
	d2, err := Domain(&dw)
	require.NoError(t, err)
	p2, err := Problem(&pw)
	require.NoError(t, err)
	require.Len(t, d2.Actions, 1)
	assert.Equal(t, p.Domain.Actions[0].Eff, d2.Actions[0].Eff)
	assert.Equal(t, p.Tasks, p2.Tasks)
}
