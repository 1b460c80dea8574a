// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package plan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Plan {
	return &Plan{
		Actions: []Step{
			{ID: 0, Name: "move", Args: []string{"p1", "l1", "l2"}, Cost: 2},
			{ID: 1, Name: "drop", Args: []string{"p1"}, Cost: 1},
		},
		Root: []int{2},
		Decompositions: []Decomposition{
			{ID: 2, Task: "deliver", Args: []string{"p1", "l2"}, Method: "m-deliver", Subtasks: []int{0, 1}},
		},
	}
}

const sampleText = `==>
0 move p1 l1 l2
1 drop p1
root 2
2 deliver p1 l2 -> m-deliver 0 1
<==
`

func TestWrite(t *testing.T) {
	p := sample()
	assert.Equal(t, sampleText, p.String())
	assert.Equal(t, 3, p.Cost())
	assert.Equal(t, 2, p.Len())
	require.NoError(t, p.Check())
}

func TestParse(t *testing.T) {
	p, err := Parse(strings.NewReader("c some log line\n" + sampleText + "trailing\n"))
	require.NoError(t, err)
	want := sample()
	for i := range want.Actions {
		want.Actions[i].Cost = 0
	}
	assert.Equal(t, want, p)

	p, err = Parse(strings.NewReader("==>\nroot\n<==\n"))
	require.NoError(t, err)
	assert.Empty(t, p.Actions)
	assert.NoError(t, p.Check())
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{
		"",
		"==>\n0 a\n",
		"==>\nx a\n<==\n",
		"==>\nroot 1\n0 a\n<==\n",
		"==>\nroot 0\n0 t ->\n<==\n",
		"==>\nroot 0\n0 t -> m x\n<==\n",
		"==>\nroot y\n<==\n",
	} {
		_, err := Parse(strings.NewReader(s))
		assert.Error(t, err, "%q", s)
	}
}

func TestCheck(t *testing.T) {
	p := sample()
	p.Root = []int{2, 0}
	assert.ErrorContains(t, p.Check(), "reached twice")

	p = sample()
	p.Decompositions[0].Subtasks = []int{0}
	assert.ErrorContains(t, p.Check(), "not reached")

	p = sample()
	p.Root = []int{7}
	assert.ErrorContains(t, p.Check(), "undefined")

	p = sample()
	p.Actions[1].ID = 0
	assert.ErrorContains(t, p.Check(), "duplicate")
}
