// cmd/client/handlers.go

package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"

	"querykv/internal/store"
)

// getCommands defines all available commands, their help, handler, and category.
func (c *cli) getCommands() map[string]command {
	return map[string]command{
		// Entries
		"read":   {help: "read <collection> <key> - Reads one entry by exact key", handler: (*cli).handleRead, category: "Entries"},
		"add":    {help: "add <collection> <key|-> <value> - Inserts or overwrites an entry ('-' generates a key)", handler: (*cli).handleAdd, category: "Entries"},
		"delete": {help: "delete <collection> <key> - Deletes one entry by exact key", handler: (*cli).handleDelete, category: "Entries"},

		// Queries
		"query": {help: "query <text> - Runs a query, e.g. query read value >= int ( 20 ) from ages", handler: (*cli).handleQuery, category: "Queries"},

		// Collection Management
		"collections create": {help: "collections create <name> - Creates a new empty collection", handler: (*cli).handleCollectionsCreate, category: "Collection Management"},
		"collections delete": {help: "collections delete <name> - Deletes a collection and its entries", handler: (*cli).handleCollectionsDelete, category: "Collection Management"},

		// Session
		"help":  {help: "help - Shows this help message", handler: (*cli).handleHelp, category: "Session"},
		"clear": {help: "clear - Clears the screen", handler: (*cli).handleClear, category: "Session"},
		"exit":  {help: "exit - Exits the client", handler: (*cli).handleExit, category: "Session"},
	}
}

func (c *cli) handleRead(args string) error {
	tokens := strings.Fields(args)
	if len(tokens) < 2 {
		return errors.New("usage: read <collection> <key>")
	}
	collection := tokens[0]

	key, rest, err := parseValueSpec(tokens[1:])
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	if len(rest) != 0 {
		return errors.New("usage: read <collection> <key>")
	}

	resp, err := c.client.Read(collection, key)
	if err != nil {
		return err
	}
	return c.renderResponse(resp)
}

func (c *cli) handleAdd(args string) error {
	tokens := strings.Fields(args)
	if len(tokens) < 3 {
		return errors.New("usage: add <collection> <key|-> <value>")
	}
	collection := tokens[0]
	rest := tokens[1:]

	var key store.Value
	if rest[0] == "-" {
		key = store.TextValue(uuid.New().String())
		rest = rest[1:]
		fmt.Println(colorInfo("Note: Key not provided. Generated key: ", key.Str))
	} else {
		var err error
		key, rest, err = parseValueSpec(rest)
		if err != nil {
			return fmt.Errorf("invalid key: %w", err)
		}
	}

	value, rest, err := parseValueSpec(rest)
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}
	if len(rest) != 0 {
		return errors.New("usage: add <collection> <key|-> <value>")
	}

	resp, err := c.client.Add(collection, key, value)
	if err != nil {
		return err
	}
	return c.renderResponse(resp)
}

func (c *cli) handleDelete(args string) error {
	tokens := strings.Fields(args)
	if len(tokens) < 2 {
		return errors.New("usage: delete <collection> <key>")
	}
	collection := tokens[0]

	key, rest, err := parseValueSpec(tokens[1:])
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	if len(rest) != 0 {
		return errors.New("usage: delete <collection> <key>")
	}

	resp, err := c.client.Delete(collection, key)
	if err != nil {
		return err
	}
	return c.renderResponse(resp)
}

func (c *cli) handleQuery(args string) error {
	text := strings.TrimSpace(args)
	if text == "" {
		return errors.New("usage: query <text>, e.g. query read key > int ( 5 ) from ages")
	}

	resp, err := c.client.Query(text)
	if err != nil {
		return err
	}
	return c.renderResponse(resp)
}

func (c *cli) handleCollectionsCreate(args string) error {
	name := strings.TrimSpace(args)
	if name == "" || len(strings.Fields(name)) != 1 {
		return errors.New("usage: collections create <name>")
	}

	resp, err := c.client.CreateCollection(name)
	if err != nil {
		return err
	}
	return c.renderResponse(resp)
}

func (c *cli) handleCollectionsDelete(args string) error {
	name := strings.TrimSpace(args)
	if name == "" || len(strings.Fields(name)) != 1 {
		return errors.New("usage: collections delete <name>")
	}

	resp, err := c.client.DeleteCollection(name)
	if err != nil {
		return err
	}
	return c.renderResponse(resp)
}

func (c *cli) handleHelp(args string) error {
	categories := []string{"Entries", "Queries", "Collection Management", "Session"}

	byCategory := make(map[string][]string)
	for name, cmd := range c.commands {
		byCategory[cmd.category] = append(byCategory[cmd.category], name)
	}

	fmt.Println(colorInfo("\nAvailable Commands:"))
	for _, category := range categories {
		names := byCategory[category]
		sort.Strings(names)
		fmt.Printf("\n  %s\n", colorOK(category))
		for _, name := range names {
			fmt.Printf("    %s\n", c.commands[name].help)
		}
	}

	fmt.Printf("\n  %s\n", colorOK("Query Language"))
	fmt.Println("    read|delete key|value <op> <literal> from <collection>")
	fmt.Println("    read|delete key|value <op> <type> ( <literal> ) from <collection>")
	fmt.Println("    join <collection> with <collection>")
	fmt.Println("    Operators: < > = <= >= contains. Types: int, float, complex, str.")
	fmt.Println("    Bare literals are text. Keys and values on 'read'/'add' use the")
	fmt.Println("    same forms: a bare token is text, 'int ( 42 )' is a typed value.")
	fmt.Println()
	return nil
}

func (c *cli) handleClear(args string) error {
	clearScreen()
	return nil
}

func (c *cli) handleExit(args string) error {
	return io.EOF
}
