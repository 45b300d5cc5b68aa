package formatter

import (
	"github.com/rs/zerolog"
)

// Schedule orders the enabled rules so every constraint holds. rules must
// be in registration order, which breaks ties. The graph spans all
// registered rules, so a hard-after chain through a disabled rule still
// orders the enabled rules around it. Enabled run-last rules follow every
// other enabled rule.
func Schedule(rules []Rule, enabled func(id string) bool, log zerolog.Logger) ([]Rule, error) {
	index := make(map[string]int, len(rules))
	for i, r := range rules {
		index[r.ID()] = i
	}

	succ := make([][]int, len(rules))
	indeg := make([]int, len(rules))
	runLast := make([]bool, len(rules))
	addEdge := func(from, to int) {
		succ[from] = append(succ[from], to)
		indeg[to]++
	}

	for i, r := range rules {
		for _, c := range r.Constraints() {
			switch c.Mode {
			case RunLast:
				runLast[i] = true
			case HardAfter:
				j, ok := index[c.RuleID]
				if !ok {
					log.Debug().Str("rule", r.ID()).Str("after", c.RuleID).
						Msg("ignoring hard-after constraint on unregistered rule")
					continue
				}
				addEdge(j, i)
			case SoftAfter:
				if j, ok := index[c.RuleID]; ok && enabled(c.RuleID) {
					addEdge(j, i)
				}
			}
		}
	}

	// Every enabled plain rule runs before every enabled run-last rule. A
	// plain rule constrained after a run-last rule therefore closes a
	// cycle.
	for i := range rules {
		if runLast[i] || !enabled(rules[i].ID()) {
			continue
		}
		for j := range rules {
			if runLast[j] && enabled(rules[j].ID()) {
				addEdge(i, j)
			}
		}
	}

	// Kahn's algorithm, picking the ready rule with the lowest
	// (run-last, registration index) key.
	done := make([]bool, len(rules))
	order := make([]int, 0, len(rules))
	for len(order) < len(rules) {
		next := -1
		for i := range rules {
			if done[i] || indeg[i] > 0 {
				continue
			}
			if next < 0 || !runLast[i] && runLast[next] {
				next = i
			}
		}
		if next < 0 {
			return nil, cycleError(rules, succ, done)
		}
		done[next] = true
		order = append(order, next)
		for _, j := range succ[next] {
			indeg[j]--
		}
	}

	out := make([]Rule, 0, len(rules))
	for _, i := range order {
		if enabled(rules[i].ID()) {
			out = append(out, rules[i])
		}
	}
	if log.GetLevel() <= zerolog.DebugLevel {
		ids := make([]string, len(out))
		for i, r := range out {
			ids[i] = r.ID()
		}
		log.Debug().Strs("order", ids).Msg("rule order resolved")
	}
	return out, nil
}

// cycleError finds the strongly connected components among the rules left
// unscheduled and reports the first one that forms a cycle.
func cycleError(rules []Rule, succ [][]int, done []bool) error {
	t := &tarjan{
		succ:    succ,
		skip:    done,
		index:   make([]int, len(rules)),
		low:     make([]int, len(rules)),
		onStack: make([]bool, len(rules)),
	}
	for i := range t.index {
		t.index[i] = -1
	}
	for i := range rules {
		if !done[i] && t.index[i] < 0 {
			t.connect(i)
		}
	}

	var cycle []int
	for _, scc := range t.sccs {
		if len(scc) > 1 || selfLoop(succ, scc[0]) {
			if cycle == nil || minOf(scc) < minOf(cycle) {
				cycle = scc
			}
		}
	}
	err := &CycleError{}
	for i := range rules {
		for _, j := range cycle {
			if i == j {
				err.RuleIDs = append(err.RuleIDs, rules[i].ID())
			}
		}
	}
	return err
}

type tarjan struct {
	succ    [][]int
	skip    []bool
	counter int
	index   []int
	low     []int
	onStack []bool
	stack   []int
	sccs    [][]int
}

func (t *tarjan) connect(v int) {
	t.index[v] = t.counter
	t.low[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.succ[v] {
		if t.skip[w] {
			continue
		}
		if t.index[w] < 0 {
			t.connect(w)
			t.low[v] = min(t.low[v], t.low[w])
		} else if t.onStack[w] {
			t.low[v] = min(t.low[v], t.index[w])
		}
	}

	if t.low[v] == t.index[v] {
		var scc []int
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		t.sccs = append(t.sccs, scc)
	}
}

func selfLoop(succ [][]int, v int) bool {
	for _, w := range succ[v] {
		if w == v {
			return true
		}
	}
	return false
}

func minOf(xs []int) int {
	m := xs[0]
	for _, x := range xs[1:] {
		m = min(m, x)
	}
	return m
}
