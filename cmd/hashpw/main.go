// Command hashpw produces the bcrypt hash of an admin password for the
// ADMIN_PASSWORD_HASH environment variable.
//
// Usage:
//
//	go run ./cmd/hashpw
//
// The password is read from the terminal with echo disabled so it never
// lands in shell history or process listings.
package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/sakif/gift-registry/internal/auth"
)

func main() {
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading password: %v\n", err)
		os.Exit(1)
	}
	if len(password) == 0 {
		fmt.Fprintln(os.Stderr, "password must not be empty")
		os.Exit(1)
	}

	hash, err := auth.NewPasswordService().Hash(string(password))
	if err != nil {
		fmt.Fprintf(os.Stderr, "hashing password: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
