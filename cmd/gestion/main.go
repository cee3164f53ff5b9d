package main

import "github.com/xaviergregor/gestion-clients/cmd/gestion/cmd"

func main() {
	cmd.Execute()
}
