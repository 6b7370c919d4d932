// Package knapsack is a reference 0/1 knapsack model for the decision
// diagram engine.
//
// An [Instance] lists items with a profit and a weight and a capacity.
// Instances are read from TOML or JSON files with [Load]:
//
//	name = "toy"
//	capacity = 10
//
//	[[items]]
//	profit = 6
//	weight = 4
//
//	[[items]]
//	profit = 5
//	weight = 3
//
// [New] builds the model, which plugs into package dd and package solver.
// [Exhaustive] enumerates every subset and serves as a reference optimum.
package knapsack
