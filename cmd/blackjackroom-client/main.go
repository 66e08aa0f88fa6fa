package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

var CLI struct {
	Server   string `short:"s" long:"server" default:"ws://localhost:8080/ws" help:"Room server URL"`
	Identity string `short:"i" long:"identity" required:"" help:"Stable identity key (balances hang off this)"`
	Name     string `short:"n" long:"name" help:"Display name (defaults to identity)"`
	Admin    string `long:"admin" help:"Admin token"`
	LogFile  string `long:"log-file" help:"Debug log file"`
}

func main() {
	kctx := kong.Parse(&CLI)

	if CLI.Name == "" {
		CLI.Name = CLI.Identity
	}

	logger := log.New(io.Discard)
	if CLI.LogFile != "" {
		f, err := os.OpenFile(CLI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			fmt.Printf("Failed to open log file: %v\n", err)
			kctx.Exit(1)
		}
		defer func() { _ = f.Close() }()
		logger = log.New(f)
		logger.SetLevel(log.DebugLevel)
	}

	client := newRoomClient(CLI.Server, CLI.Identity, CLI.Name, CLI.Admin, logger)
	if err := client.connect(); err != nil {
		fmt.Printf("Failed to connect to %s: %v\n", CLI.Server, err)
		kctx.Exit(1)
	}
	defer client.close()

	program := tea.NewProgram(newModel(client))
	client.onMessage = func(msg serverMessage) {
		program.Send(msg)
	}
	go client.readLoop()

	if _, err := program.Run(); err != nil {
		fmt.Printf("Client error: %v\n", err)
		kctx.Exit(1)
	}
}
