package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelsOf(t *testing.T, ctx *DAGContext) []string {
	t.Helper()
	var labels []string
	for _, n := range ctx.Nodes() {
		label, err := ctx.NodeLabel(n)
		require.NoError(t, err)
		labels = append(labels, label)
	}
	return labels
}

func TestDAGContext_PostOrderLabels(t *testing.T) {
	a := MustInput("a.mp4")
	b := MustInput("b.mp4")
	sa := MustFilter("scale", []Stream{a.Video()}, Opt("width", 640), Opt("height", 360))
	sb := MustFilter("scale", []Stream{b.Video()}, Opt("width", 640), Opt("height", 360))
	ov := MustFilter("overlay", []Stream{sa.Out(), sb.Out()})
	out := MustOutput("out.mp4", []Stream{ov.Out()})

	ctx := NewDAGContext(out)
	assert.Equal(t, []string{"0", "s0", "1", "s1", "s2", "o0"}, labelsOf(t, ctx))

	label, err := ctx.NodeLabel(b)
	require.NoError(t, err)
	assert.Equal(t, "1", label)
	label, _ = ctx.NodeLabel(ov)
	assert.Equal(t, "s2", label)
}

func TestDAGContext_LabelsAreReproducible(t *testing.T) {
	build := func() Node {
		in := MustInput("in.mp4")
		v := MustFilter("hflip", []Stream{in.Video()})
		a := MustFilter("volume", []Stream{in.Audio()}, Opt("volume", 0.5))
		return MustOutput("out.mp4", []Stream{v.Out(), a.Out()})
	}

	first := labelsOf(t, NewDAGContext(build()))
	second := labelsOf(t, NewDAGContext(build()))
	assert.Equal(t, first, second)
}

func TestDAGContext_DedupsEqualInputs(t *testing.T) {
	out := MustOutput("out.mp4", []Stream{MustInput("a.mp4").Stream(), MustInput("a.mp4").Stream()})

	ctx := NewDAGContext(out)
	inputs := ctx.NodesOf(KindInput)
	require.Len(t, inputs, 1)

	edges, err := ctx.OutgoingEdges(inputs[0])
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, 0, edges[0].Slot)
	assert.Equal(t, 1, edges[1].Slot)
	assert.Len(t, ctx.Streams(), 1, "both slots reference the same stream")
}

func TestDAGContext_OutgoingStreamsByPin(t *testing.T) {
	in := MustInput("a.mp4")
	split := MustFilter("split", []Stream{in.Video()}, Opt("outputs", 2))
	h := MustFilter("hflip", []Stream{split.MustStream(0)})
	v := MustFilter("vflip", []Stream{split.MustStream(1)})
	out := MustOutput("out.mp4", []Stream{h.Out(), v.Out()})

	ctx := NewDAGContext(out)
	pins, err := ctx.PinEdges(split)
	require.NoError(t, err)
	require.Len(t, pins, 2)
	assert.True(t, Equal(h, pins[0][0].Consumer))
	assert.True(t, Equal(v, pins[1][0].Consumer))

	streams, err := ctx.OutgoingStreams(in)
	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Equal(t, in.Video().String(), streams[0].String())
}

func TestDAGContext_UnlabeledNode(t *testing.T) {
	in := MustInput("a.mp4")
	ctx := NewDAGContext(MustOutput("out.mp4", []Stream{in.Video()}))

	stranger := MustInput("b.mp4")
	assert.False(t, ctx.Contains(stranger))

	_, err := ctx.NodeLabel(stranger)
	assert.True(t, errors.Is(err, ErrUnlabeledNode))

	_, err = ctx.OutgoingStreams(stranger)
	var uerr *UnlabeledNodeError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, "Input(b.mp4)", uerr.Node)
}

func TestDAGContext_MultipleRoots(t *testing.T) {
	in := MustInput("a.mp4")
	o1 := MustOutput("v.mp4", []Stream{in.Video()})
	o2 := MustOutput("a.wav", []Stream{in.Audio()})

	ctx := NewDAGContext(o1, o2, o1)
	assert.Len(t, ctx.Roots(), 2)
	assert.Equal(t, []string{"0", "o0", "o1"}, labelsOf(t, ctx))
}

func TestDAGContext_SharedSubgraphVisitedOnce(t *testing.T) {
	in := MustInput("a.mp4")
	node := MustFilter("null", []Stream{in.Video()})
	// A diamond repeated 20 levels deep: a naive walk would visit 2^20 paths
	for i := 0; i < 20; i++ {
		split := MustFilter("split", []Stream{node.Out()}, Opt("outputs", 2))
		node = MustFilter("hstack", []Stream{split.MustStream(0), split.MustStream(1)})
	}

	ctx := NewDAGContext(MustOutput("out.mp4", []Stream{node.Out()}))
	assert.Equal(t, 1+1+20*2+1, ctx.Len())
}
