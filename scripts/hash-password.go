package main

import (
	"fmt"
	"os"

	"github.com/RodrigoCastroMoura/trackerbot/internal/util"
)

// Prints a bcrypt hash for a customer password or a chatbot shared secret,
// ready for customers.password_hash or customers.chatbot_secret_hash.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/hash-password.go <password-or-shared-secret>\n")
		os.Exit(1)
	}

	hash, err := util.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
