package main

import "github.com/koustreak/metaschema/cmd"

func main() {
	cmd.Execute()
}
