// Package main is the colorwarm entrypoint.
package main

import (
	// Embedded zone database for systems without /usr/share/zoneinfo
	_ "time/tzdata"

	"github.com/philtems/colorwarm/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
