package main

import "github.com/yikesong/finsight/internal/cli"

func main() {
	cli.Run()
}
