package probe

import (
	"context"
	"net/http"
	"os"

	"github.com/jessevdk/go-flags"
)

// Run parses args and probes the proxy, writing what it sees to stdout.
func Run(args []string) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), options.Timeout)
	defer cancel()

	return New(options, &http.Client{}, os.Stdout).Run(ctx)
}
