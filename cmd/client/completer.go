// cmd/client/completer.go

package main

import "github.com/chzyer/readline"

func (c *cli) getCompleter() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("read"),
		readline.PcItem("add"),
		readline.PcItem("delete"),
		readline.PcItem("query",
			readline.PcItem("read",
				readline.PcItem("key"),
				readline.PcItem("value"),
			),
			readline.PcItem("delete",
				readline.PcItem("key"),
				readline.PcItem("value"),
			),
			readline.PcItem("join"),
		),
		readline.PcItem("collections",
			readline.PcItem("create"),
			readline.PcItem("delete"),
		),
		readline.PcItem("help"),
		readline.PcItem("clear"),
		readline.PcItem("exit"),
	)
}
