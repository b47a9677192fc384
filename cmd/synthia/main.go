package main

import "github.com/danhajduk/synthia/internal/cli"

func main() {
	cli.Execute()
}
