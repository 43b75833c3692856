package main

import (
	"os"

	"github.com/jacoelho/xsdgate/internal/cli"
	"github.com/jacoelho/xsdgate/internal/engine"
)

func main() {
	code := cli.Execute()
	engine.Shutdown()
	os.Exit(code)
}
