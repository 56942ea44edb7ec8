package main

import (
	"smake/cmd"
)

func main() {
	cmd.Execute()
}
