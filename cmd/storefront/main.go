package main

import (
	"fmt"
	"os"
)

var Version = "dev"

func main() {
	rootCmd := newRootCmd(newApp(os.Stdout, os.LookupEnv))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
