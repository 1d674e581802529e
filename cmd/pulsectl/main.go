// Command pulsectl is a terminal client for the pulse survey API.
//
//	pulsectl login --email alice@x.com --password password123
//	pulsectl submit "feeling good about the release"
//	pulsectl history
//	pulsectl admin export --format csv --out surveys.csv
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
