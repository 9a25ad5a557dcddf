// Command sphknn runs nearest-neighbor queries over points on the unit sphere.
//
// Usage:
//
//	sphknn [flags] <command> [args]
//
// Commands:
//
//	demo      - six axis points queried from the equator
//	query     - nearest points of a YAML point set
//	distance  - great-circle distance between two points
//	db        - load, query and reindex points in a SQLite nearest table
//
// Angles are degrees unless --radians is set.
package main

import (
	"fmt"
	"os"

	"github.com/viant/sphere-knn/cmd/sphknn/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
