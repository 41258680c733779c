// Command lunar converts between solar and Korean lunar dates from the
// command line.
//
// Usage:
//
//	lunar to-lunar 2023-04-05
//	lunar to-solar 2023-02-15 --leap
//	lunar year 2023
//	lunar next 08-15
//	lunar lifeclock 1960-05-15 --calendar lunar
package main

import (
	"fmt"
	"os"
	"time"
)

func main() {
	if err := newRootCmd(time.Now).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
