package main

import (
	"fmt"
	"os"

	"rule-reconciliation-service/cmd/ruleengine/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)

	if err := cmd.Execute(); err != nil {
		handler := cmd.NewCLIErrorHandler()
		code := handler.HandleError(err)
		if code == 0 {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			code = 1
		}
		os.Exit(code)
	}
}
