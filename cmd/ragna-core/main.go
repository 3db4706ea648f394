package main

import (
	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if present
	_ = godotenv.Load()
}

func main() {
	Execute()
}
