package main

import "github.com/ValentinKolb/mprpc/cmd"

func main() {
	cmd.Execute()
}
