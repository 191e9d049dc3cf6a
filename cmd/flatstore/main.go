package main

import (
	"fmt"
	"os"

	"github.com/kjk/flatstore/internal/cli"
	"github.com/kjk/flatstore/log"
)

func main() {
	cmd := cli.NewRootCommand()
	err := cmd.Execute()
	log.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
