package main

import (
	"os"

	dumsorcmder "github.com/kaundalabs/dumsor/cmd/dumsor"
)

func main() {
	cmd := dumsorcmder.NewDumsorCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
