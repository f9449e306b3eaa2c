package main

import (
	"os"

	"github.com/wonny/kfin/cmd/kfin/commands"
)

// 통합 CLI 진입점: go run ./cmd/kfin [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
