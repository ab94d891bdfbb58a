package compiler_test

import (
	"fmt"
	"strings"

	"github.com/chicogong/ffgraph/pkg/compiler"
	_ "github.com/chicogong/ffgraph/pkg/filters/builtin"
	"github.com/chicogong/ffgraph/pkg/graph"
)

// Example builds a picture-in-picture graph and compiles it
func Example() {
	main := graph.MustInput("main.mp4")
	inset := graph.MustInput("inset.mp4")

	small := graph.MustFilter("scale", []graph.Stream{inset.Video()}, graph.Opt("width", 320), graph.Opt("height", -1))
	pip := graph.MustFilter("overlay", []graph.Stream{main.Video(), small.Out()}, graph.Opt("x", 10), graph.Opt("y", 10))

	out := graph.MustOutput("pip.mp4", []graph.Stream{pip.Out(), main.Audio()}, graph.Opt("c:v", "libx264"))
	root, err := out.Overwrite()
	if err != nil {
		fmt.Println(err)
		return
	}

	cmd, err := compiler.Compile(root)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(strings.Join(cmd.Args, " "))
	// Output:
	// ffmpeg -i main.mp4 -i inset.mp4 -filter_complex [1:v]scale=width=320:height=-1[s0];[0:v][s0]overlay=x=10:y=10[s1] -map [s1] -map 0:a -c:v libx264 pip.mp4 -y
}
