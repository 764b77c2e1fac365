package main

import "github.com/classgate/kiosk/cmd"

func main() {
	cmd.Execute()
}
