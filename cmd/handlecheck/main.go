// Command handlecheck reports scoped lock handles that are acquired but
// never released.
//
//	go run scopedlock/cmd/handlecheck ./...
package main

import (
	"scopedlock/pkg/analysis/handlecheck"

	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(handlecheck.Analyzer)
}
