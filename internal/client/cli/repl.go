package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

type handler func(a *App, ctx context.Context, args string) error

type command struct {
	usage      string
	needsLogin bool
	nargs      int
	run        handler
}

var commands = map[string]command{
	"login":         {usage: "login <id>", nargs: 1, run: (*App).login},
	"signup":        {usage: "signup <id>", nargs: 1, run: (*App).signup},
	"post":          {usage: "post <text>", needsLogin: true, nargs: 1, run: (*App).post},
	"follow":        {usage: "follow <id>", needsLogin: true, nargs: 1, run: (*App).follow},
	"unfollow":      {usage: "unfollow <id>", needsLogin: true, nargs: 1, run: (*App).unfollow},
	"respond":       {usage: "respond <id> <1|2|3>", needsLogin: true, nargs: 2, run: (*App).respond},
	"notifications": {usage: "notifications", needsLogin: true, run: (*App).notifications},
	"profile":       {usage: "profile <id>", needsLogin: true, nargs: 1, run: (*App).profile},
	"upload":        {usage: "upload <path>", needsLogin: true, nargs: 1, run: (*App).upload},
	"search":        {usage: "search <file> <en|gr>", needsLogin: true, nargs: 2, run: (*App).search},
	"ask_photo":     {usage: "ask_photo <owner> <file>", needsLogin: true, nargs: 2, run: (*App).askPhoto},
	"permit":        {usage: "permit <id> <file> <yes|no>", needsLogin: true, nargs: 3, run: (*App).permit},
	"details":       {usage: "details <owner> <file>", needsLogin: true, nargs: 2, run: (*App).details},
	"download":      {usage: "download <file> <owner>", needsLogin: true, nargs: 2, run: (*App).download},
	"repost":        {usage: "repost <owner>", needsLogin: true, nargs: 1, run: (*App).repost},
	"ask_comment":   {usage: "ask_comment <id> <text>", needsLogin: true, nargs: 2, run: (*App).askComment},
	"approve":       {usage: "approve <id> <yes|no> <text>", needsLogin: true, nargs: 2, run: (*App).approve},
	"comment":       {usage: "comment <id> <text>", needsLogin: true, nargs: 2, run: (*App).comment},
	"language":      {usage: "language <en|gr>", needsLogin: true, nargs: 1, run: (*App).language},
	"sync":          {usage: "sync", needsLogin: true, run: (*App).sync},
	"raw":           {usage: "raw <line>", nargs: 1, run: (*App).raw},
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) status() string {
	if id := a.conn.ID(); id != "" {
		return "(" + id + ") "
	}
	return ""
}

func (a *App) help() {
	var names []string
	for name, c := range commands {
		if c.needsLogin == a.isLoggedIn() || !c.needsLogin {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	a.println("Available commands:")
	for _, n := range names {
		a.println("  " + commands[n].usage)
	}
	a.println("  exit")
}

// runREPL reads one command per line and dispatches it. Handler errors are
// printed and the loop continues; only a broken connection ends it early.
func runREPL(ctx context.Context, a *App) error {
	if a.interactive {
		a.println("Welcome to the social network client (type 'help' for commands)")
	}
	for {
		if a.interactive {
			a.printf("sn %s> ", a.status())
		}
		line, err := a.reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		name, args, _ := strings.Cut(line, " ")
		args = strings.TrimSpace(args)

		switch name {
		case "help":
			a.help()
			continue
		case "exit", "quit":
			a.println("Bye!")
			return nil
		}

		c, ok := commands[name]
		switch {
		case !ok:
			a.println("Unknown command:", name)
			continue
		case c.needsLogin && !a.isLoggedIn():
			a.println("Please login or signup first")
			continue
		case c.nargs > 0 && len(strings.Fields(args)) < c.nargs:
			a.println("Usage:", c.usage)
			continue
		}

		if err := c.run(a, ctx, args); err != nil {
			if isConnectionError(err) {
				a.println("Connection lost:", err)
				return err
			}
			a.println("Error:", err)
		}
	}
}
