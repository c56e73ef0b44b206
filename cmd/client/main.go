// cmd/client/main.go

package main

import (
	"flag"
	"fmt"
	"os"

	"querykv/pkg/client"
)

func main() {
	addrPtr := flag.String("addr", "127.0.0.1:65535", "Server address (host:port)")
	flag.Parse()

	addr := *addrPtr
	if flag.NArg() > 0 {
		addr = flag.Arg(0) // Use positional argument as address if provided.
	}

	c := client.New(addr)
	if err := c.Connect(); err != nil {
		fmt.Fprintln(os.Stderr, colorErr("Failed to connect: ", err))
		os.Exit(1)
	}
	defer c.Close()

	fmt.Println(colorInfo("Connected to querykv server at ", addr, "."))
	fmt.Println(colorInfo("Type 'help' for available commands."))

	cli := newCLI(c)
	if err := cli.run(); err != nil {
		fmt.Fprintln(os.Stderr, colorErr("Client error: ", err))
		os.Exit(1)
	}
}
