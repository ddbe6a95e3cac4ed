package main

import "github.com/lsmith090/CIPP-sub000/cmd/portalgate/cmd"

func main() {
	cmd.Execute()
}
