package main

import "arxivbot/cmd"

func main() {
	cmd.Execute()
}
