// Command pipinstall installs the python dependencies declared in a plugin
// manifest into the plugin's virtual environment.
package main

import (
	"fmt"
	"os"

	"github.com/stuartofmt/pipInstall/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
