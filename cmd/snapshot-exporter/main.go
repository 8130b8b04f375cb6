package main

import "github.com/voluzi/memwatch/cmd/snapshot-exporter/cmd"

func main() {
	cmd.Execute()
}
