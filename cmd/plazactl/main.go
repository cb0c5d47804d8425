package main

import (
	"github.com/mfuentes/plaza/cmd/plazactl/cmd"
)

func main() {
	cmd.Execute()
}
