package dd_test

import (
	"context"
	"fmt"
	"math"

	"github.com/matzehuels/ddsolve/pkg/dd"
	"github.com/matzehuels/ddsolve/pkg/models/knapsack"
)

func ExampleDiagram_Compile() {
	k, _ := knapsack.New(knapsack.Instance{
		Capacity: 10,
		Items: []knapsack.Item{
			{Profit: 6, Weight: 4},
			{Profit: 5, Weight: 3},
			{Profit: 8, Weight: 5},
			{Profit: 3, Weight: 2},
			{Profit: 7, Weight: 6},
		},
	})

	d := dd.New[knapsack.State](dd.Frontier)
	err := d.Compile(context.Background(), &dd.Input[knapsack.State]{
		Mode:     dd.Exact,
		Problem:  k,
		Residual: dd.SubProblem[knapsack.State]{State: k.InitialState(), UB: math.MaxInt},
		BestLB:   math.MinInt,
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	value, _ := d.BestValue()
	path, _ := d.BestSolution()
	sol, _ := k.Decode(path)
	fmt.Println("exact:", d.IsExact())
	fmt.Println("value:", value)
	fmt.Println("packed:", sol.Packed)
	// Output:
	// exact: true
	// value: 16
	// packed: [1 2 3]
}

func ExampleParseCutsetPolicy() {
	for _, name := range []string{"lel", "Frontier", "layer"} {
		policy, err := dd.ParseCutsetPolicy(name)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		fmt.Println(policy)
	}
	// Output:
	// lel
	// frontier
	// error: unknown cutset policy: the only supported cutsets are 'lel' and 'frontier', got "layer"
}
