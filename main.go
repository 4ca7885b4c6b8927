package main

import "github.com/fbz-tec/storexport/cmd"

func main() {
	cmd.Execute()
}
