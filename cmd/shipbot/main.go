package main

import "github.com/gbvolkov/shipment-data-maintenance-bot/pkg/cli"

func main() {
	cli.Execute()
}
