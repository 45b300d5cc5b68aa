package rules

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/formatter"
	"github.com/donaldgifford/kfmt/internal/rules/format"
)

func TestFactoriesRegistered(t *testing.T) {
	fs := Factories()
	require.Len(t, fs, 13)

	seen := map[string]bool{}
	for _, f := range fs {
		id := f().ID()
		assert.False(t, seen[id], "duplicate rule %s", id)
		seen[id] = true
	}
	assert.True(t, seen[format.IndentID])
	assert.True(t, seen[format.MaxLineLengthID])
}

func TestFactoriesReturnsCopy(t *testing.T) {
	fs := Factories()
	fs[0] = nil
	assert.NotNil(t, Factories()[0])
}

func TestCatalogOrder(t *testing.T) {
	e, err := formatter.New(formatter.Options{
		Factories:    Factories(),
		Settings:     config.DefaultConfig().Settings(),
		Experimental: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		format.NoTrailingSpacesID,
		format.FinalNewlineID,
		format.NoConsecutiveBlankLinesID,
		format.CommentSpacingID,
		format.OpSpacingID,
		format.NoEmptyFirstLineInMethodBlockID,
		format.FunctionSignatureID,
		format.ClassSignatureID,
		format.ArgumentListWrappingID,
		format.TrailingCommaOnCallSiteID,
		format.TrailingCommaOnDeclarationSiteID,
		format.IndentID,
		format.MaxLineLengthID,
	}, e.RuleIDs())
}

func newEngine(t *testing.T) *formatter.Engine {
	t.Helper()
	e, err := formatter.New(formatter.Options{
		Factories: Factories(),
		Settings:  config.DefaultConfig().Settings(),
	})
	require.NoError(t, err)
	return e
}

// leafStatements are single-line statements, some with nested argument
// lists and lambdas.
var leafStatements = []string{
	"val a = 1",
	"println(a)",
	"val b = a + 2",
	"return",
	"// note",
	"foo(bar(1, 2), baz(listOf(3)))",
	"val c = listOf(1, 2).map { it + 1 }",
	"list.forEach { x -> println(x) }",
	"val d = mapOf(1 to listOf(2, 3))",
}

// parameters are parameter templates; %d is replaced by the position to
// keep names unique.
var parameters = []string{
	"p%d: Int",
	"p%d: String = \"x\"",
	"@Deprecated(\"old\") p%d: Int = 1",
	"p%d: List<Int> = listOf(1, 2)",
	"vararg p%d: Long",
}

var callArguments = []string{"1", "bar(2, 3)", "listOf(4)", "baz(qux(5), 6)"}

// sourceGen renders Kotlin from two streams of random ints: picks choose
// the shape and noise chooses the leading spaces, trailing spaces and
// blank lines around each line.
type sourceGen struct {
	b            strings.Builder
	picks, noise []int
	pi, ni       int
}

func (g *sourceGen) pick(n int) int {
	if len(g.picks) == 0 {
		return 0
	}
	v := g.picks[g.pi%len(g.picks)]
	g.pi++
	return v % n
}

func (g *sourceGen) nextNoise() int {
	if len(g.noise) == 0 {
		return 0
	}
	v := g.noise[g.ni%len(g.noise)]
	g.ni++
	return v
}

// line writes text on its own line with random surrounding whitespace.
// Blank lines are only added when blank is set.
func (g *sourceGen) line(text string, blank bool) {
	n := g.nextNoise()
	if blank {
		g.b.WriteString(strings.Repeat("\n", n%3))
	}
	g.b.WriteString(strings.Repeat(" ", n%9))
	g.b.WriteString(text)
	g.b.WriteString(strings.Repeat(" ", n%4))
	g.b.WriteString("\n")
}

func (g *sourceGen) statements(count, depth int) {
	for range count {
		g.statement(depth)
	}
}

func (g *sourceGen) statement(depth int) {
	if depth >= 2 {
		g.line(leafStatements[g.pick(len(leafStatements))], true)
		return
	}
	switch g.pick(6) {
	case 0:
		g.line("foo(", true)
		for i := range 1 + g.pick(3) {
			arg := callArguments[g.pick(len(callArguments))]
			if i > 0 {
				g.b.WriteString(",\n")
			}
			n := g.nextNoise()
			g.b.WriteString(strings.Repeat(" ", n%9) + arg)
		}
		g.b.WriteString("\n")
		g.line(")", false)
	case 1:
		g.line("if (a > 0) {", true)
		g.statements(1+g.pick(2), depth+1)
		if g.pick(2) == 0 {
			g.line("}", false)
			return
		}
		g.line("} else {", false)
		g.statements(1+g.pick(2), depth+1)
		g.line("}", false)
	case 2:
		g.line("list.forEach { x ->", true)
		g.statements(1+g.pick(2), depth+1)
		g.line("}", false)
	case 3:
		g.line("run {", true)
		g.statements(1+g.pick(2), depth+1)
		g.line("}", false)
	default:
		g.line(leafStatements[g.pick(len(leafStatements))], true)
	}
}

// signature renders a function header with up to three parameters. The
// separators vary between a space and a line break.
func (g *sourceGen) signature() string {
	var b strings.Builder
	b.WriteString("fun main(")
	for i := range g.pick(4) {
		if i > 0 {
			b.WriteString([]string{", ", ",\n", ",  "}[g.pick(3)])
		}
		fmt.Fprintf(&b, parameters[g.pick(len(parameters))], i)
	}
	b.WriteString(")")
	if g.pick(2) == 0 {
		b.WriteString(": Unit")
	}
	b.WriteString(" {")
	return b.String()
}

// kotlinSource renders a function with a block body built from picks,
// optionally followed by a function with an expression body.
func kotlinSource(picks, noise []int) string {
	g := &sourceGen{picks: picks, noise: noise}
	g.b.WriteString(g.signature() + "\n")
	g.statements(min(len(picks), 6), 0)
	g.b.WriteString("}\n")
	if g.pick(2) == 0 {
		g.b.WriteString("\nfun twice(x: Int = 2) =\n" + strings.Repeat(" ", g.nextNoise()%9) + "x * 2\n")
	}
	return g.b.String()
}

func TestFormatPropertyIdempotent(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("formatted output is stable and clean", prop.ForAll(
		func(picks, noise []int) bool {
			src := kotlinSource(picks, noise)
			first, err := e.Format(ctx, formatter.Request{Path: "Main.kt", Source: src})
			if err != nil {
				return false
			}
			second, err := e.Format(ctx, formatter.Request{Path: "Main.kt", Source: first.Output})
			if err != nil || second.Output != first.Output || second.Changed {
				return false
			}
			check, err := e.Lint(ctx, formatter.Request{Path: "Main.kt", Source: first.Output})
			if err != nil {
				return false
			}
			for _, f := range check.Findings {
				if f.Fixable {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 100)),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.Property("lint leaves the source untouched", prop.ForAll(
		func(picks, noise []int) bool {
			src := kotlinSource(picks, noise)
			res, err := e.Lint(ctx, formatter.Request{Path: "Main.kt", Source: src})
			return err == nil && res.Output == src && !res.Changed
		},
		gen.SliceOf(gen.IntRange(0, 100)),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
