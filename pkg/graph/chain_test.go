package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainLength = 5000

func longChain(n int) *OutputNode {
	s := MustInput("in.mp4").Video()
	for i := 0; i < n; i++ {
		name := "hflip"
		if i%2 == 1 {
			name = "vflip"
		}
		s = MustFilter(name, []Stream{s}).Out()
	}
	return MustOutput("out.mp4", []Stream{s})
}

func TestLongChain(t *testing.T) {
	out := longChain(chainLength)

	ctx := NewDAGContext(out)
	assert.Equal(t, chainLength+2, ctx.Len())
	label, err := ctx.NodeLabel(out.Inputs()[0].Node())
	require.NoError(t, err)
	assert.Equal(t, "s4999", label)

	fixed, err := Validate(out, true)
	require.NoError(t, err)
	assert.True(t, fixed == Node(out))

	data, err := Marshal(out)
	require.NoError(t, err)
	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.True(t, Equal(out, decoded))
}

func BenchmarkIndexChain(b *testing.B) {
	out := longChain(chainLength)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NewDAGContext(out)
	}
}
