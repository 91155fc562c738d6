// Command admin runs maintenance tasks against the CMS database:
// migrations, permission bootstrap and demo content seeding.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
