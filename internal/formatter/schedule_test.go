package formatter

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allEnabled(string) bool { return true }

func enabledExcept(disabled ...string) func(string) bool {
	return func(id string) bool { return !slices.Contains(disabled, id) }
}

func asRules(rs ...*stubRule) []Rule {
	out := make([]Rule, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}

func TestScheduleOrder(t *testing.T) {
	tests := []struct {
		name    string
		rules   []Rule
		enabled func(string) bool
		want    []string
	}{
		{
			name:    "registration order without constraints",
			rules:   asRules(stub("a"), stub("b"), stub("c")),
			enabled: allEnabled,
			want:    []string{"a", "b", "c"},
		},
		{
			name:    "hard after",
			rules:   asRules(stub("a", After("c")), stub("b"), stub("c")),
			enabled: allEnabled,
			want:    []string{"b", "c", "a"},
		},
		{
			name:    "soft after enabled target",
			rules:   asRules(stub("a", AfterIfEnabled("b")), stub("b")),
			enabled: allEnabled,
			want:    []string{"b", "a"},
		},
		{
			name:    "soft after disabled target",
			rules:   asRules(stub("c"), stub("a", AfterIfEnabled("b")), stub("b", After("c"))),
			enabled: enabledExcept("b"),
			want:    []string{"c", "a"},
		},
		{
			name:    "hard after disabled rule keeps transitive order",
			rules:   asRules(stub("b", After("a")), stub("a", After("c")), stub("c")),
			enabled: enabledExcept("a"),
			want:    []string{"c", "b"},
		},
		{
			name:    "run last",
			rules:   asRules(stub("a", Last), stub("b"), stub("c")),
			enabled: allEnabled,
			want:    []string{"b", "c", "a"},
		},
		{
			name:    "constraints among run last rules",
			rules:   asRules(stub("a", Last, After("b")), stub("b", Last), stub("c")),
			enabled: allEnabled,
			want:    []string{"c", "b", "a"},
		},
		{
			name:    "hard after unregistered rule is vacuous",
			rules:   asRules(stub("a", After("standard:wrapping")), stub("b")),
			enabled: allEnabled,
			want:    []string{"a", "b"},
		},
		{
			name:    "disabled rules are dropped",
			rules:   asRules(stub("a"), stub("b"), stub("c")),
			enabled: enabledExcept("b"),
			want:    []string{"a", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Schedule(tt.rules, tt.enabled, zerolog.Nop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestScheduleCycle(t *testing.T) {
	rules := asRules(
		stub("x"),
		stub("b", After("c")),
		stub("a", After("b")),
		stub("c", After("a")),
		stub("d", After("a")),
	)

	_, err := Schedule(rules, allEnabled, zerolog.Nop())
	require.Error(t, err)

	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"b", "a", "c"}, cycle.RuleIDs)
	assert.True(t, errors.Is(err, ErrConfig))
	assert.Equal(t, "rule ordering cycle between b, a, c", err.Error())
}

func TestScheduleSelfCycle(t *testing.T) {
	_, err := Schedule(asRules(stub("a", After("a"))), allEnabled, zerolog.Nop())

	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a"}, cycle.RuleIDs)
}

func TestScheduleRunLastBeforeDependentIsCycle(t *testing.T) {
	rules := asRules(stub("y", Last), stub("x", After("y")), stub("z"))

	_, err := Schedule(rules, allEnabled, zerolog.Nop())

	var cycle *CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"y", "x"}, cycle.RuleIDs)
}

func TestScheduleRunLastIgnoresDisabledPlainRule(t *testing.T) {
	rules := asRules(stub("y", Last), stub("x", After("y")), stub("z"))

	got, err := Schedule(rules, enabledExcept("x"), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y"}, ids(got))
}

func TestScheduleSoftCycleThroughDisabledRule(t *testing.T) {
	rules := asRules(stub("a", AfterIfEnabled("b")), stub("b", AfterIfEnabled("a")))

	got, err := Schedule(rules, enabledExcept("b"), zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(got))
}

// randomRules builds n rules with random backward hard, soft and run-last
// constraints. Plain rules are only constrained after plain rules, so the
// constraints never form a cycle.
func randomRules(seed int64, n int) []Rule {
	rnd := rand.New(rand.NewSource(seed))
	last := make([]bool, n)
	for i := range last {
		last[i] = rnd.Intn(4) == 0
	}
	out := make([]Rule, n)
	for i := range out {
		r := stub(fmt.Sprintf("r%d", i))
		for j := 0; j < i; j++ {
			if !last[i] && last[j] {
				continue
			}
			switch rnd.Intn(6) {
			case 0:
				r.Order = append(r.Order, After(fmt.Sprintf("r%d", j)))
			case 1:
				r.Order = append(r.Order, AfterIfEnabled(fmt.Sprintf("r%d", j)))
			}
		}
		if last[i] {
			r.Order = append(r.Order, Last)
		}
		out[i] = r
	}
	// Registration order is independent of the constraint order.
	rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func TestSchedulePropertyDeterministicAndValid(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("order is deterministic and satisfies every constraint", prop.ForAll(
		func(seed int64, n int, mask uint32) bool {
			rules := randomRules(seed, n)
			enabled := func(id string) bool {
				var i int
				_, _ = fmt.Sscanf(id, "r%d", &i)
				return mask&(1<<uint(i)) != 0
			}

			first, err := Schedule(rules, enabled, zerolog.Nop())
			if err != nil {
				return false
			}
			second, err := Schedule(rules, enabled, zerolog.Nop())
			if err != nil || !slices.Equal(ids(first), ids(second)) {
				return false
			}

			pos := map[string]int{}
			for i, r := range first {
				if !enabled(r.ID()) {
					return false
				}
				pos[r.ID()] = i
			}
			for _, r := range rules {
				if enabled(r.ID()) {
					if _, ok := pos[r.ID()]; !ok {
						return false
					}
				}
			}

			runLast := func(r Rule) bool { return slices.Contains(r.Constraints(), Last) }
			for i, r := range first {
				for _, c := range r.Constraints() {
					p, ok := pos[c.RuleID]
					if c.Mode != RunLast && ok && p > i {
						return false
					}
				}
				if i > 0 && runLast(first[i-1]) && !runLast(r) {
					return false
				}
			}
			return true
		},
		gen.Int64Range(0, 1<<30),
		gen.IntRange(1, 16),
		gen.UInt32(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
