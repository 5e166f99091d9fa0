// Command authaudit serves the token issuing API behind the audit
// interceptor and prints the audit log.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "authaudit:", err)
		os.Exit(1)
	}
}
