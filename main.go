package main

import "github.com/civreg/faceid/cmd"

func main() {
	cmd.Execute()
}
