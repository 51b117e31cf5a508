package main

import "github.com/oss-specs/specs/cmd"

func main() {
	cmd.Execute()
}
