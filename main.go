package main

import (
	"github.com/weirdshark/weirdshark/cmd"
)

func main() {
	cmd.Execute()
}
