package main

import (
	"flag"

	"housing-backend/cmd"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cmd.Run(*configPath)
}
