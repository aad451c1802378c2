package main

import (
	"log"

	"event-checkout/cmd"
	_ "event-checkout/migrations"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
