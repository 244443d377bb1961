package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/mwfilho/mcp-pdpj/internal/probe"
)

func main() {
	if err := probe.Run(os.Args[1:]); err != nil {
		// go-flags has already printed its own errors and the help text.
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				return
			}
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
