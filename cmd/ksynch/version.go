// version.go implements the 'ksynch version' command.
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/kolkov/ksynch/ksynch"
)

// versionCommand prints the release, or with -check exits 1 when this
// build does not satisfy the given version.
//
// Example:
//
//	ksynch version -check v0.1
func versionCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("version", stderr)
	check := fs.String("check", "", "required version; exit 1 if this build is not compatible")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	info := ksynch.GetInfo()
	if *check == "" {
		fmt.Fprintf(stdout, "ksynch version %s (policies: %s, priorities %d-%d)\n",
			info.Version, strings.Join(info.Policies, ", "), info.Priorities[0], info.Priorities[1])
		return 0
	}

	ok, err := ksynch.Compatible(*check)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if !ok {
		fmt.Fprintf(stdout, "ksynch %s does not satisfy %s\n", info.Version, *check)
		return 1
	}
	fmt.Fprintf(stdout, "ksynch %s satisfies %s\n", info.Version, *check)
	return 0
}
