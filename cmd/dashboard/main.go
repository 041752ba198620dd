package main

import (
	"flag"
	"log"

	"offtank-sim/internal/dashboard"
)

func main() {
	out := flag.String("out", "build", "output directory for rendered dashboards")
	flag.Parse()
	if err := dashboard.Render(*out); err != nil {
		log.Fatal(err)
	}
}
