// Package fringe holds the subproblems still to be explored by the search.
//
// Two sequential queues are provided: [SimpleQueue] keeps every subproblem
// pushed, [NoDupQueue] folds subproblems reaching the same state at the same
// depth into one entry. Both pop the entry with the highest upper bound and
// break ties deterministically.
//
// [Shared] makes a queue usable by a pool of workers. Workers loop on
// [Shared.Pop] and [Shared.Done]; Pop blocks while the queue is empty but
// some worker may still push children, and returns [Complete] once the queue
// is empty and every worker is idle:
//
//	for {
//		sp, status := f.Pop(ctx, id, accept)
//		if status != fringe.Work {
//			return
//		}
//		children := process(sp)
//		f.Push(children...)
//		f.Done(id, sp)
//	}
package fringe
