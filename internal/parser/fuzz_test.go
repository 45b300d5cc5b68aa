package parser

import "testing"

func FuzzParse(f *testing.F) {
	seeds := []string{
		"package a\n",
		"fun main() {\n    println(\"hi\")\n}\n",
		"class A(val x: Int) : B() {\n}\n",
		"val x = foo(a, b) { it + 1 }\n",
		"val s = \"\"\"\n    raw ${x}\n\"\"\"\n",
		"when (x) {\n    1 -> a\n    else -> b\n}\n",
		"if (a) b else c\n",
		"x as? Int ?: 0\n",
		"/* unterminated",
		"\"open",
		"}{)(][",
		"",
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		tr, _ := Parse(input)
		if got := tr.String(); got != input {
			t.Fatalf("round trip mismatch:\n got %q\nwant %q", got, input)
		}
	})
}
