package main

import "github.com/metal-toolbox/hwqa/cmd"

func main() {
	cmd.Execute()
}
