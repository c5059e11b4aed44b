package main

import "github.com/Norgate-AV/labrun/cmd"

func main() {
	cmd.Execute()
}
