package main

import "esn-monitor/cmd/esnctl/cli"

func main() {
	cli.Execute()
}
