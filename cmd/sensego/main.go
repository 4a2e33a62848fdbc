// Command sensego disambiguates word senses of JSON corpora.
package main

import (
	"os"

	"github.com/hupe1980/sensego/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
