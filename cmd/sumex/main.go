// Copyright 2025 The sumex Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package main provides the sumex CLI.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/sumex-ml/sumex/einsum"
	"github.com/sumex-ml/sumex/tensor"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("sumex %s\n", version)
			return
		case "bench":
			if err := runBench(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "bench: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("sumex - Einstein summation and matrix-chain optimization for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  bench      Compare planned vs naive matrix-chain multiplication")
}

// runBench generates random matrix chains and compares the planned
// parenthesization cost against the naive left fold, executing both to
// confirm value parity on the last repetition.
func runBench(args []string) error {
	fs := flag.NewFlagSet("bench", flag.ContinueOnError)
	chainLen := fs.Int("n", 6, "number of matrices in each chain")
	maxDim := fs.Int("max-dim", 64, "maximum matrix dimension")
	repeats := fs.Int("repeats", 20, "number of random chains to plan")
	seed := fs.Int64("seed", time.Now().UnixNano(), "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *chainLen < 2 || *maxDim < 1 || *repeats < 1 {
		return fmt.Errorf("invalid arguments: n=%d max-dim=%d repeats=%d", *chainLen, *maxDim, *repeats)
	}

	rng := rand.New(rand.NewSource(*seed))
	bar := progressbar.Default(int64(*repeats), "planning")

	var planned, naive int64
	var lastShapes []tensor.Shape
	for r := 0; r < *repeats; r++ {
		dims := make([]int, *chainLen+1)
		for i := range dims {
			dims[i] = 1 + rng.Intn(*maxDim)
		}
		shapes := make([]tensor.Shape, *chainLen)
		for i := range shapes {
			shapes[i] = tensor.Shape{dims[i], dims[i+1]}
		}

		plan, err := einsum.PlanChain(shapes)
		if err != nil {
			return err
		}
		planned += plan.Cost()
		naive += plan.NaiveCost()
		lastShapes = shapes
		_ = bar.Add(1)
	}

	fmt.Printf("\nchains:  %d of length %d (max dim %d, seed %d)\n", *repeats, *chainLen, *maxDim, *seed)
	fmt.Printf("planned: %s scalar multiplications\n", humanize.Comma(planned))
	fmt.Printf("naive:   %s scalar multiplications\n", humanize.Comma(naive))
	if naive > 0 {
		fmt.Printf("saved:   %.1f%%\n", 100*float64(naive-planned)/float64(naive))
	}

	// Value parity spot check on the last chain.
	operands := make([]*tensor.RawTensor, len(lastShapes))
	for i, s := range lastShapes {
		data := make([]float32, s.NumElements())
		for j := range data {
			data[j] = rng.Float32()
		}
		t, err := tensor.FromSlice(data, s)
		if err != nil {
			return err
		}
		operands[i] = t
	}
	got, err := einsum.MatMulChain(operands...)
	if err != nil {
		return err
	}
	want, err := einsum.MatMulChainNaive(operands...)
	if err != nil {
		return err
	}
	maxDiff := 0.0
	for i := 0; i < got.Shape()[0]; i++ {
		for j := 0; j < got.Shape()[1]; j++ {
			d := got.FloatAt(i, j) - want.FloatAt(i, j)
			if d < 0 {
				d = -d
			}
			if d > maxDiff {
				maxDiff = d
			}
		}
	}
	fmt.Printf("parity:  planned and naive agree within %.3g\n", maxDiff)
	return nil
}
