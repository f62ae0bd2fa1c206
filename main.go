package main

import "activity-assistant/cmd/server"

func main() {
	server.Init()
	server.Run()
}
