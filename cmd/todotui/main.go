package main

import (
	"os"

	"todotui/cmd/todotui/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, nil))
}
