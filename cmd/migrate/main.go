// Command migrate applies, reverts and inspects TEP schema migrations.
package main

import (
	"github.com/joho/godotenv"

	"github.com/thephilippbusch/tep-app/internal/cli"
)

func main() {
	// A missing .env is fine; existing variables win.
	_ = godotenv.Load()

	cli.Execute()
}
