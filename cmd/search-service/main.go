package main

import (
	"os"

	"github.com/SHUB2205/Aurora-technical-assessment/searchservice"
)

func main() {
	if err := searchservice.Run(); err != nil {
		os.Exit(1)
	}
}
