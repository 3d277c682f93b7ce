package main

import "metascrub/cmd"

func main() {
	cmd.Execute()
}
