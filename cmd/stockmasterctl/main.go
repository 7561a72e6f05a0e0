// Command stockmasterctl is the operator tool for the password reset service.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/stockmaster/stockmaster-backend/internal/cli"
)

func main() {
	// A missing .env is fine; configuration may come from the environment
	_ = godotenv.Load()

	if err := cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
