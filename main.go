package main

import (
	"os"

	"github.com/eysh-app/eysh/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
