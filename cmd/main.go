package main

import (
	"os"

	"github.com/soundprediction/go-livemem/cmd/livemem"
)

func main() {
	if err := livemem.Execute(); err != nil {
		os.Exit(1)
	}
}
