package runner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/donaldgifford/kfmt/internal/formatter"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

// isKotlin reports whether path names a Kotlin source or script.
func isKotlin(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".kt" || ext == ".kts"
}

// expandFiles replaces directory arguments with the Kotlin files below
// them. Hidden directories are skipped. File arguments are kept as given.
func expandFiles(args []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && path != arg && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if !d.IsDir() && isKotlin(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
		slices.Sort(found)
		for _, p := range found {
			add(p)
		}
	}
	return out, nil
}

func dumpFiles(opts *Options, files []string) int {
	code := ExitOK
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			writeErr(opts.Stderr, "kfmt: %v\n", err)
			code = ExitError
			continue
		}
		code = max(code, dumpSource(opts, path, string(src)))
	}
	return code
}

// dumpSource prints the syntax tree of src, one node per line.
func dumpSource(opts *Options, path, src string) int {
	tr, err := formatter.Tree(src)
	if err != nil {
		writeErr(opts.Stderr, "kfmt: %s: %v\n", path, err)
		return ExitError
	}
	writeOut(opts.Stdout, path+"\n")
	var walk func(id syntax.NodeID, depth int)
	walk = func(id syntax.NodeID, depth int) {
		indent := strings.Repeat("  ", depth+1)
		if tr.IsLeaf(id) {
			writeOut(opts.Stdout, fmt.Sprintf("%s%s %q\n", indent, tr.Kind(id), tr.Text(id)))
			return
		}
		writeOut(opts.Stdout, fmt.Sprintf("%s%s\n", indent, tr.Kind(id)))
		for _, ch := range tr.Children(id) {
			walk(ch, depth+1)
		}
	}
	walk(tr.Root(), 0)
	return ExitOK
}
