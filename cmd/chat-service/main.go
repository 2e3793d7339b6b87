package main

import (
	"os"

	"github.com/foodiary/foodiary-chat/chatservice"
)

func main() {
	if err := chatservice.Run(); err != nil {
		os.Exit(1)
	}
}
