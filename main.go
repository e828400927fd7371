package main

import "github.com/muthu-2006-p/employeetimesheettracker-sub000/cmd"

func main() {
	cmd.Execute()
}
