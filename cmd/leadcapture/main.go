// Command leadcapture receives user-created events and forwards them as leads
// to the lead capture server.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
