package main

import "github.com/ValentinKolb/tatp/cmd"

func main() {
	cmd.Execute()
}
