package main

import (
	_ "github.com/mattn/go-sqlite3"
	"github.com/sidereusnuntius/portal/internal/cli"
)

func main() {
	cli.Execute()
}
