package knapsack

// Exhaustive returns the optimal profit of inst and the packed items of one
// optimal solution by enumerating every subset. It is meant as a reference
// for small instances.
func Exhaustive(inst Instance) (int, []int) {
	n := len(inst.Items)
	best, bestSet := 0, []int{}
	var chosen []int

	var visit func(i, room, profit int)
	visit = func(i, room, profit int) {
		if i == n {
			if profit > best {
				best = profit
				bestSet = append(bestSet[:0], chosen...)
			}
			return
		}
		if it := inst.Items[i]; it.Weight <= room {
			chosen = append(chosen, i)
			visit(i+1, room-it.Weight, profit+it.Profit)
			chosen = chosen[:len(chosen)-1]
		}
		visit(i+1, room, profit)
	}
	visit(0, inst.Capacity, 0)

	return best, bestSet
}
