// Command nosecrets is the offline secret-scanning pre-commit gate.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nosecrets/nosecrets/pkg/nserr"
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps the result to the exit codes
// fixed by the external-interfaces contract: 0 clean, 1 blocking findings,
// 2 usage error, 3 configuration/rule error, 130 interrupted.
func run() int {
	err := Execute()
	if err == nil {
		return 0
	}

	var nsErr *nserr.Error
	if errors.As(err, &nsErr) {
		switch nsErr.Kind {
		case nserr.KindBlockingFinding:
			return 1
		case nserr.KindInvalidRule, nserr.KindInvalidConfig:
			return 3
		case nserr.KindInterrupted:
			return 130
		}
	}

	fmt.Fprintln(os.Stderr, "nosecrets:", err)
	return 2
}
