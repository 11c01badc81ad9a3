package main

import (
	"os"

	"tenantgate/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
