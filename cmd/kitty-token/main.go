// Command kitty-token prints a signed bearer token for an account, using the
// same KITTYCORE_JWT_SECRET as kittyd. It is a development helper.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"kittycore/internal/auth"
	"kittycore/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Getenv("KITTYCORE_JWT_SECRET"), os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, secret string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kitty-token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	account := fs.String("account", "", "account id to place in the token subject")
	ttl := fs.Duration("ttl", auth.DefaultTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *account == "" {
		_, _ = fmt.Fprintln(stderr, "kitty-token: -account is required")
		return 2
	}
	if secret == "" {
		_, _ = fmt.Fprintln(stderr, "kitty-token: KITTYCORE_JWT_SECRET is required")
		return 2
	}
	j, err := auth.NewJWT([]byte(secret), auth.WithTTL(*ttl), auth.WithNow(time.Now))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "kitty-token: %v\n", err)
		return 1
	}
	tok, err := j.Issue(domain.AccountID(*account))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "kitty-token: %v\n", err)
		return 1
	}
	if _, err := fmt.Fprintln(stdout, tok); err != nil {
		return 1
	}
	return 0
}
