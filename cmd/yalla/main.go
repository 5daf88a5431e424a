package main

import "yallapost/internal/cmd"

func main() {
	cmd.Run()
}
