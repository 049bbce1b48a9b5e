// Package handlecheck defines an analyzer that reports lock handles which
// are acquired but never released.
//
// A handle is considered handled when the acquiring function calls its
// Release method (directly or deferred), or hands it on: returns it, passes
// it to a call, stores it, or captures it in a closure that does any of
// these. Everything else is reported.
package handlecheck

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

const lockPkgPath = "scopedlock/pkg/concurrency/lock"

var Analyzer = &analysis.Analyzer{
	Name:     "handlecheck",
	Doc:      "reports scoped lock handles and upgrade cookies that are never released",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// acquirers maps receiver type name to the methods that return a handle as
// their first result.
var acquirers = map[string]map[string]bool{
	"Lock": {
		"AcquireRead":                  true,
		"AcquireReadContext":           true,
		"AcquireWrite":                 true,
		"AcquireWriteContext":          true,
		"AcquireUpgradableRead":        true,
		"AcquireUpgradableReadContext": true,
	},
	"UpgradableReadHandle": {
		"Upgrade":        true,
		"UpgradeContext": true,
	},
}

func run(pass *analysis.Pass) (any, error) {
	ins := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.ExprStmt)(nil),
		(*ast.AssignStmt)(nil),
		(*ast.ValueSpec)(nil),
	}

	ins.WithStack(nodeFilter, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push {
			return true
		}

		switch n := n.(type) {
		case *ast.ExprStmt:
			if call, ok := n.X.(*ast.CallExpr); ok {
				if name, ok := acquireCall(pass, call); ok {
					pass.Reportf(call.Pos(), "result of %s is discarded; the handle is never released", name)
				}
			}

		case *ast.AssignStmt:
			if len(n.Rhs) == 1 && len(n.Lhs) >= 1 {
				checkBinding(pass, n.Rhs[0], n.Lhs[0], enclosingBody(stack))
			}

		case *ast.ValueSpec:
			if len(n.Values) == 1 && len(n.Names) >= 1 {
				checkBinding(pass, n.Values[0], n.Names[0], enclosingBody(stack))
			}
		}
		return true
	})

	return nil, nil
}

// acquireCall reports whether call acquires a handle and returns a display
// name such as "Lock.AcquireRead".
func acquireCall(pass *analysis.Pass, call *ast.CallExpr) (string, bool) {
	fn, ok := typeutil.Callee(pass.TypesInfo, call).(*types.Func)
	if !ok || fn.Pkg() == nil || fn.Pkg().Path() != lockPkgPath {
		return "", false
	}

	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return "", false
	}

	recv := sig.Recv().Type()
	if ptr, ok := recv.(*types.Pointer); ok {
		recv = ptr.Elem()
	}
	named, ok := recv.(*types.Named)
	if !ok {
		return "", false
	}

	typeName := named.Obj().Name()
	if !acquirers[typeName][fn.Name()] {
		return "", false
	}
	return typeName + "." + fn.Name(), true
}

func checkBinding(pass *analysis.Pass, rhs ast.Expr, lhs ast.Expr, body *ast.BlockStmt) {
	call, ok := ast.Unparen(rhs).(*ast.CallExpr)
	if !ok {
		return
	}
	name, ok := acquireCall(pass, call)
	if !ok {
		return
	}

	id, ok := lhs.(*ast.Ident)
	if !ok {
		// Stored in a field, index or dereference: ownership moved.
		return
	}
	if id.Name == "_" {
		pass.Reportf(id.Pos(), "handle from %s is assigned to _ and never released", name)
		return
	}

	obj := pass.TypesInfo.ObjectOf(id)
	v, ok := obj.(*types.Var)
	if !ok || body == nil || isPackageLevel(v) {
		return
	}

	if !handled(pass, body, v) {
		pass.Reportf(id.Pos(), "handle %s from %s is never released", id.Name, name)
	}
}

func isPackageLevel(v *types.Var) bool {
	return v.Pkg() != nil && v.Parent() == v.Pkg().Scope()
}

func enclosingBody(stack []ast.Node) *ast.BlockStmt {
	for i := len(stack) - 1; i >= 0; i-- {
		switch fn := stack[i].(type) {
		case *ast.FuncDecl:
			return fn.Body
		case *ast.FuncLit:
			return fn.Body
		}
	}
	return nil
}

// handled walks body looking for a use of v that releases it or moves it
// somewhere else.
func handled(pass *analysis.Pass, body *ast.BlockStmt, v *types.Var) bool {
	var (
		stack []ast.Node
		found bool
	)

	ast.Inspect(body, func(n ast.Node) bool {
		if found {
			return false
		}
		if n == nil {
			stack = stack[:len(stack)-1]
			return true
		}

		if id, ok := n.(*ast.Ident); ok && pass.TypesInfo.Uses[id] == v {
			found = usage(id, stack)
		}

		stack = append(stack, n)
		return true
	})

	return found
}

// usage classifies one use of the handle variable given its ancestors.
func usage(id *ast.Ident, stack []ast.Node) bool {
	if len(stack) == 0 {
		return false
	}

	switch parent := stack[len(stack)-1].(type) {
	case *ast.SelectorExpr:
		// h.Release() releases; h.ID(), h.Upgrade() and friends do not.
		return parent.X == id && parent.Sel.Name == "Release"

	case *ast.AssignStmt:
		for _, lhs := range parent.Lhs {
			if lhs == id {
				return false
			}
		}
		// _ = h silences the compiler without moving the handle anywhere.
		if len(parent.Lhs) == len(parent.Rhs) {
			for i, rhs := range parent.Rhs {
				if rhs == id && isBlank(parent.Lhs[i]) {
					return false
				}
			}
		}
		return true

	case *ast.BinaryExpr:
		// h != nil and similar comparisons.
		return false

	default:
		return true
	}
}

func isBlank(e ast.Expr) bool {
	id, ok := e.(*ast.Ident)
	return ok && id.Name == "_"
}
