package main

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

// OsExitCheckAnalyzer reports os.Exit calls made directly in main.main.
// Deferred cleanups such as closing the database and syncing the logger
// are skipped by os.Exit.
var OsExitCheckAnalyzer = &analysis.Analyzer{
	Name:     "osexitcheck",
	Doc:      "check for os.Exit() calls in the main function of the main package",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      runOsExit,
}

func runOsExit(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	insp.WithStack([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push || !inMainFunc(stack) {
			return true
		}
		call := n.(*ast.CallExpr)
		fn := typeutil.StaticCallee(pass.TypesInfo, call)
		if fn != nil && fn.Pkg() != nil && fn.Pkg().Path() == "os" && fn.Name() == "Exit" {
			pass.Reportf(call.Pos(), "osexitcheck os.Exit cannot be called in main function of main package")
		}
		return true
	})
	return nil, nil
}

// inMainFunc reports whether the innermost function declaration on the stack
// is main. Calls inside function literals declared in main count as well.
func inMainFunc(stack []ast.Node) bool {
	for i := len(stack) - 1; i >= 0; i-- {
		if f, ok := stack[i].(*ast.FuncDecl); ok {
			return f.Recv == nil && f.Name.Name == "main"
		}
	}
	return false
}
