package main

import (
	"signcam/internal/camera/source"
	"signcam/internal/cli"
)

func main() {
	cli.Execute(source.NewOpener)
}
