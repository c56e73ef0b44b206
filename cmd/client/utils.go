// cmd/client/utils.go

package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"querykv/internal/protocol"
	"querykv/internal/query"
	"querykv/internal/store"
	"querykv/pkg/client"
)

// Color definitions for the interface
var (
	colorOK     = color.New(color.FgGreen, color.Bold).SprintFunc()
	colorErr    = color.New(color.FgRed, color.Bold).SprintFunc()
	colorPrompt = color.New(color.FgMagenta).SprintFunc()
	colorInfo   = color.New(color.FgBlue).SprintFunc()
)

// parseValueSpec consumes one value from the front of tokens: either the
// cast form `<type> ( <literal> )` or a single bare token taken as text.
// It returns the value and the unconsumed tokens.
func parseValueSpec(tokens []string) (store.Value, []string, error) {
	if len(tokens) == 0 {
		return store.Value{}, nil, errors.New("missing value")
	}
	if len(tokens) >= 4 && tokens[1] == "(" && tokens[3] == ")" {
		v, err := store.Coerce(tokens[2], tokens[0])
		if err != nil {
			return store.Value{}, nil, err
		}
		return v, tokens[4:], nil
	}
	return store.TextValue(tokens[0]), tokens[1:], nil
}

// displayValue spells a value the way the query language would, so table
// cells can be pasted back into a query.
func displayValue(v store.Value) string {
	if v.Kind == store.KindText {
		return v.Str
	}
	return fmt.Sprintf("%s ( %s )", v.TypeTag(), v.String())
}

func statusString(success bool) string {
	if success {
		return "OK"
	}
	return "ERROR"
}

// renderResponse prints the standard status table followed by any decoded
// payload rows. Join responses carry two collection names, everything else
// at most one, which is how the payload shape is picked.
func (c *cli) renderResponse(resp *protocol.Response) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Status", "Collections", "Message"})
	table.Append([]string{statusString(resp.Success), strings.Join(resp.Names, ", "), resp.Message})
	table.Render()

	if len(resp.Data) == 0 {
		fmt.Println("---")
		return nil
	}

	if len(resp.Names) == 2 {
		groups, err := client.DecodeJoinGroups(resp.Data)
		if err != nil {
			return err
		}
		renderGroups(groups)
	} else {
		entries, err := client.DecodeEntries(resp.Data)
		if err != nil {
			return err
		}
		renderEntries(entries)
	}
	fmt.Println("---")
	return nil
}

func renderEntries(entries []store.Entry) {
	if len(entries) == 0 {
		fmt.Println(colorInfo("No matching entries."))
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Key", "Value"})
	table.SetAutoWrapText(false)
	for i, entry := range entries {
		table.Append([]string{strconv.Itoa(i + 1), displayValue(entry.Key), displayValue(entry.Value)})
	}
	table.Render()
}

func renderGroups(groups []query.JoinGroup) {
	if len(groups) == 0 {
		fmt.Println(colorInfo("No keys in either collection."))
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Values"})
	table.SetAutoWrapText(false)
	for _, group := range groups {
		parts := make([]string, 0, len(group.Values))
		for _, v := range group.Values {
			parts = append(parts, displayValue(v))
		}
		table.Append([]string{displayValue(group.Key), strings.Join(parts, ", ")})
	}
	table.Render()
}

// clearScreen clears the terminal screen.
func clearScreen() {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "cls")
	default:
		cmd = exec.Command("clear")
	}
	cmd.Stdout = os.Stdout
	_ = cmd.Run()
}
