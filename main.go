package main

import "github.com/viaviktor/rfisys/cmd"

func main() {
	cmd.Execute()
}
