package main

import "zalonotify/cmd"

func main() {
	cmd.Execute()
}
