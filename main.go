package main

import "github.com/KaramelBytes/samajhai/cmd"

func main() {
	cmd.Execute()
}
