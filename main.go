package main

import "github.com/frahmantamala/role-permission-api/cmd"

func main() {
	cmd.Execute()
}
