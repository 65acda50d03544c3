package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptCredentials reads the account login from stdin and the password
// without echo from the terminal.
func PromptCredentials() (Credentials, error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Your login: ")
	login, err := reader.ReadString('\n')
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read login: %w", err)
	}
	login = strings.TrimSpace(login)

	fmt.Print("Your password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read password: %w", err)
	}

	return Credentials{Login: login, Password: string(password)}, nil
}
