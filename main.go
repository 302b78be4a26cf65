// The main package for the hdv executable.
package main

import (
	"github.com/sotaychohdv/hdv-functions/cmd"
)

func main() {
	cmd.Execute()
}
