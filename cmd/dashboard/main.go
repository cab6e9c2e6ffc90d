package main

import "github.com/pribylovaa/go-login-boilerplate/cmd/dashboard/cmd"

func main() {
	cmd.Execute()
}
