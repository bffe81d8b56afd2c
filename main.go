package main

import "github.com/KowalskiBio/Primerool/cmd"

func main() {
	cmd.Execute() // initialize cobra commands
}
