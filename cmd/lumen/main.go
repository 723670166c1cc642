// Package main provides the lumen CLI: it builds a small tensor program,
// compiles it and runs it on the host.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/born-ml/lumen/backend/fixedpoint"
	"github.com/born-ml/lumen/compiler"
	"github.com/born-ml/lumen/engine"
	"github.com/born-ml/lumen/graph"
	"github.com/born-ml/lumen/shape"
	"github.com/born-ml/lumen/tensor"
	"k8s.io/klog/v2"
)

const version = "v0.1.0-dev"

var (
	dotFlag        = flag.String("dot", "", "write the compiled graph in Graphviz format to `file`")
	rowsFlag       = flag.Int("rows", 4, "number of rows bound to the symbolic dimension")
	fixedPointFlag = flag.Bool("fixedpoint", false, "lower arithmetic to the fixed-point backend")
	fractionFlag   = flag.Uint("fraction-bits", 32, "fractional bits of the fixed-point format")
	parallelFlag   = flag.Bool("parallel", false, "run independent nodes concurrently")
)

const help = `lumen builds tensor programs as graphs, rewrites them and runs them.

Usage:
  lumen version     Show version
  lumen [flags] demo
                    Build softmax-like statistics over a [rows, 3] input,
                    compile and run them, and print the results.
`

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), help)
		fmt.Fprintln(flag.CommandLine.Output(), "\nFlags:")
		flag.PrintDefaults()
	}
	flag.Parse()
	defer klog.Flush()

	switch flag.Arg(0) {
	case "version":
		fmt.Printf("lumen %s\n", version)
	case "demo":
		if err := demo(); err != nil {
			fmt.Fprintf(os.Stderr, "lumen: %+v\n", err)
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func demo() error {
	rows := *rowsFlag
	data := make([]float32, rows*3)
	for i := range data {
		data[i] = float32(i%7) - 2
	}

	g := graph.New()
	x := g.NewInput("x", tensor.Float32, shape.Sym("rows"), shape.Known(3))
	x.Set(tensor.FromSlice(data))
	g.SetDim("rows", rows)

	w := g.NewInput("w", tensor.Float32, shape.Known(3))
	w.Set(tensor.FromSlice([]float32{0.5, 1, 2}))

	exps := x.Exp()
	softmax := exps.Div(exps.SumReduce(1).Expand(1, shape.Known(3))).Keep()
	scaled := x.Mul(w).MaxReduce(1).Keep()
	mean := x.Mean(0).Keep()

	static := g.NewInput("s", tensor.Float32, shape.Known(2), shape.Known(3))
	static.Set(tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}))
	dot := static.Mul(w).SumReduce(1).Keep()
	if err := g.Err(); err != nil {
		return err
	}

	passes := compiler.Default()
	if *fixedPointFlag {
		cfg := fixedpoint.DefaultConfig()
		cfg.FractionBits = *fractionFlag
		passes = append(passes, fixedpoint.New(cfg))
	}
	remap := graph.Remap{}
	if err := compiler.Compile(g, remap, passes...); err != nil {
		return err
	}

	if *dotFlag != "" {
		f, err := os.Create(*dotFlag)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := g.Dot(f); err != nil {
			return err
		}
	}

	opts := engine.DefaultOptions()
	if *parallelFlag {
		opts.Parallel = engine.DefaultParallelConfig()
	}
	if err := engine.Run(g, opts); err != nil {
		return err
	}

	for _, out := range []struct {
		name string
		t    graph.Tensor
	}{
		{"softmax", softmax},
		{"max(x*w)", scaled},
		{"mean(x)", mean},
		{"s.w", dot},
	} {
		values, err := out.t.Remap(remap).Data()
		if err != nil {
			return err
		}
		fmt.Printf("%-9s %v\n", out.name, values)
	}
	return nil
}
