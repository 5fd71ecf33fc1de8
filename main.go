// Package main is the entry point for the sheetpipe application
package main

import (
	"github.com/ErikPlachta/sheetpipe/cmd"
)

func main() {
	cmd.Execute()
}
