// cmd/client/cli.go

package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"querykv/pkg/client"
)

// command couples a handler with its help line and a category for the
// dynamic help output.
type command struct {
	help     string
	handler  func(c *cli, args string) error
	category string
}

// cli drives the interactive session. 'multiWordCommands' is generated from
// the command table so parsing never drifts from it.
type cli struct {
	client            *client.Client
	rl                *readline.Instance
	rlConfig          *readline.Config
	commands          map[string]command
	multiWordCommands []string
}

func newCLI(c *client.Client) *cli {
	cl := &cli{
		client: c,
	}
	cl.commands = cl.getCommands()

	var mwCmds []string
	for cmd := range cl.commands {
		if strings.Contains(cmd, " ") {
			mwCmds = append(mwCmds, cmd)
		}
	}
	// Longest first so "collections create" wins over "collections".
	sort.Slice(mwCmds, func(i, j int) bool {
		return len(mwCmds[i]) > len(mwCmds[j])
	})
	cl.multiWordCommands = mwCmds

	return cl
}

func (c *cli) run() error {
	c.rlConfig = &readline.Config{
		Prompt:          colorPrompt("querykv> "),
		HistoryFile:     "/tmp/querykv_history.tmp",
		AutoComplete:    c.getCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	}

	var err error
	c.rl, err = readline.NewEx(c.rlConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer c.rl.Close()

	return c.mainLoop()
}

func (c *cli) mainLoop() error {
	for {
		input, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(input) == 0 {
					break
				}
				continue
			} else if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		cmd, args := c.getCommandAndRawArgs(input)

		handler, found := c.commands[cmd]
		if !found {
			fmt.Println(colorErr("Error: Unknown command. Type 'help' for commands: ", cmd))
			continue
		}

		startTime := time.Now()
		if err := handler.handler(c, args); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Println(colorErr("Command failed: ", err))
		}
		duration := time.Since(startTime)
		if cmd != "clear" && cmd != "help" {
			fmt.Println(colorInfo("Request time: ", duration.Round(time.Millisecond)))
		}
	}
	fmt.Println(colorInfo("\nExiting client. Goodbye!"))
	return nil
}

// getCommandAndRawArgs splits user input into a command word (possibly
// multi-word) and its raw argument string.
func (c *cli) getCommandAndRawArgs(input string) (string, string) {
	for _, mwCmd := range c.multiWordCommands {
		if strings.HasPrefix(input, mwCmd+" ") || input == mwCmd {
			return mwCmd, strings.TrimSpace(input[len(mwCmd):])
		}
	}

	parts := strings.SplitN(input, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
