package main

import "github.com/melitools/melisync/cmd"

func main() {
	cmd.Execute()
}
