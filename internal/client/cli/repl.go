package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Account(ctx context.Context) error
	Update(ctx context.Context) error
	Avatar(ctx context.Context, args []string) error
	Forgot(ctx context.Context) error
	Reset(ctx context.Context) error
	Blog(ctx context.Context, args []string) error
	Article(ctx context.Context, args []string) error
	Shop(ctx context.Context, args []string) error
	Product(ctx context.Context, args []string) error
}

const (
	helpAnonymous = "Available commands: blog [category], article <slug>, shop [category], product <slug>, register, login, forgot, reset, exit"
	helpSignedIn  = "Available commands: blog [category], article <slug>, shop [category], product <slug>, account, update, avatar [path], logout, exit"
)

// runREPL reads commands line by line from reader and dispatches them to
// a. The first token is the command and the rest are its arguments.
// Command errors are printed and the loop goes on. It returns on EOF, on
// "exit" or "quit", or when ctx is done.
//
//	Always:
//	  - help                - show available commands
//	  - blog [category]     - weekly article feed, optionally one category
//	  - article <slug>      - read an article
//	  - shop [category]     - product catalogue
//	  - product <slug>      - product details
//	  - exit | quit         - leave the program
//
//	Not logged in:
//	  - register, login, forgot, reset
//
//	Logged in:
//	  - account, update, avatar [path], logout
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("shop> %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "account", "me":
			cmdErr = a.Account(ctx)
		case "update":
			cmdErr = a.Update(ctx)
		case "avatar":
			cmdErr = a.Avatar(ctx, args)
		case "forgot":
			cmdErr = a.Forgot(ctx)
		case "reset":
			cmdErr = a.Reset(ctx)
		case "blog":
			cmdErr = a.Blog(ctx, args)
		case "article":
			cmdErr = a.Article(ctx, args)
		case "shop":
			cmdErr = a.Shop(ctx, args)
		case "product":
			cmdErr = a.Product(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr.Error())
		}
	}
}
