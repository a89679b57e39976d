// cmd/lobbyctl/main.go
package main

import (
	"github.com/jason-s-yu/relay/internal/cli"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cli.Execute()
}
