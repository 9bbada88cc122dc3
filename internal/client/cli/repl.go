package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. App implements it.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Users(ctx context.Context) error
	History(ctx context.Context, with string) error
	Send(ctx context.Context, to, content string) error
	Logout(ctx context.Context) error
}

// runREPL reads commands line by line until EOF, "exit" or "quit".
//
//	Not logged in: help, register, login, exit
//	Logged in:     help, users, history <user>, send <user> <text>, @<user> <text>, logout, exit
//
// Handlers report their own errors; the loop keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("chat %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		if strings.HasPrefix(cmd, "@") && len(cmd) > 1 {
			rest = cmd[1:] + " " + rest
			cmd = "send"
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: users, history <user>, send <user> <text> (or @<user> <text>), logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "users":
			_ = a.Users(ctx)

		case "history":
			if rest == "" {
				printlnFn("Usage: history <user>")
				continue
			}
			_ = a.History(ctx, rest)

		case "send":
			to, content, _ := strings.Cut(rest, " ")
			if to == "" || strings.TrimSpace(content) == "" {
				printlnFn("Usage: send <user> <text>")
				continue
			}
			_ = a.Send(ctx, to, strings.TrimSpace(content))

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
