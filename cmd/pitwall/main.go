package main

import (
	"os"

	"github.com/okian/pitwall/internal/cli"
)

func main() {
	if err := cli.NewApp(os.Stdout).Run(os.Args); err != nil {
		_, _ = os.Stderr.WriteString("pitwall: " + err.Error() + "\n")
		os.Exit(1)
	}
}
