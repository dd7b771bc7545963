package main

import (
	"os"

	qpvcmder "github.com/mbuckingham74/quilting-patterns-viewer/cmd/qpv"
)

func main() {
	cmd := qpvcmder.NewQPVCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
