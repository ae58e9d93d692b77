package main

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

// RawReplaceAnalyzer reports plain substring replacement outside the packages
// that understand PHP-serialized values. Replacing a URL inside
// s:19:"http://old.example"; without rewriting the length prefix leaves a value
// WordPress can no longer unserialize.
var RawReplaceAnalyzer = &analysis.Analyzer{
	Name:     "rawreplace",
	Doc:      "check for strings and bytes replacement outside the relocate packages",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      runRawReplace,
}

// allowedPkgs is a comma-separated list of package path suffixes where
// replacement is permitted.
var allowedPkgs = "internal/relocate,internal/phpserial"

func init() {
	RawReplaceAnalyzer.Flags.StringVar(&allowedPkgs, "allow", allowedPkgs,
		"comma-separated package path suffixes allowed to call Replace")
}

var replaceFuncs = map[string]bool{
	"Replace":     true,
	"ReplaceAll":  true,
	"NewReplacer": true,
}

func runRawReplace(pass *analysis.Pass) (interface{}, error) {
	if replaceAllowed(pass.Pkg.Path()) {
		return nil, nil
	}
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	insp.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		if strings.HasSuffix(pass.Fset.Position(call.Pos()).Filename, "_test.go") {
			return
		}
		fn := typeutil.StaticCallee(pass.TypesInfo, call)
		if fn == nil || fn.Pkg() == nil || fn.Type().(*types.Signature).Recv() != nil {
			return
		}
		pkg := fn.Pkg().Path()
		if (pkg == "strings" || pkg == "bytes") && replaceFuncs[fn.Name()] {
			pass.Reportf(call.Pos(), "rawreplace %s.%s may corrupt serialized values, use relocate.Rule", pkg, fn.Name())
		}
	})
	return nil, nil
}

func replaceAllowed(path string) bool {
	for _, suffix := range strings.Split(allowedPkgs, ",") {
		suffix = strings.TrimSpace(suffix)
		if suffix != "" && (path == suffix || strings.HasSuffix(path, "/"+suffix)) {
			return true
		}
	}
	return false
}
