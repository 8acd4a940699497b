package main

import (
	"os"

	"github.com/rushshell/rush/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
