package main

import "github.com/lu-zhengda/smartmail/internal/cli"

func main() {
	cli.Execute()
}
