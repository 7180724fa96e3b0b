// mjc-lsp serves MiniJava editor features over the Language Server Protocol.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/mjc/server"
)

func main() {
	verbosity := flag.Int("v", 0, "Log verbosity (1 info, 2 debug)")
	logPath := flag.String("log", "", "Write logs to this file instead of stderr")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mjc-lsp [options]\n\n")
		fmt.Fprintf(os.Stderr, "Speaks LSP on stdin/stdout. Configure your editor to start it for *.java.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	// stdout carries the protocol
	var path *string
	if *logPath != "" {
		path = logPath
	}
	commonlog.Configure(*verbosity, path)

	if err := server.NewLSP().Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
