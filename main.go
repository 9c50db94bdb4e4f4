/*
Copyright © 2025 tieubaoca
*/
package main

import (
	"github.com/joho/godotenv"
	"github.com/tieubaoca/studytool-be/cmd"
)

func main() {
	cmd.Execute()
}

func init() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
}
