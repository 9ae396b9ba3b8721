package main

import (
	"log"

	"github.com/leadscout/leadscout/app"
)

func main() {
	if err := app.SetupAndRunServer(); err != nil {
		log.Fatal(err)
	}
}
