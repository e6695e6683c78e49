// rcm-dashboard serves the CareOptions for Kids RCM Dashboard: the pre-built
// static asset tree plus a handful of JSON endpoints.
package main

import (
	"os"

	"github.com/careoptions/rcm-dashboard/cmd/rcm-dashboard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
