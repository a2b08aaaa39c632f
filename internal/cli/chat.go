package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/knowbase/knowbase/internal/agent"
	"github.com/knowbase/knowbase/internal/app"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with knowbase from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			a, err := app.New(cfg, paths, log)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runChatLoop(ctx, a.Chat)
		},
	}
	return cmd
}

// runChatLoop drives the conversation against stdin/stdout. It opens
// with an empty turn so the assistant greets first, and ends on EOF,
// interrupt, or /quit.
func runChatLoop(ctx context.Context, chat *agent.Conversation) error {
	var sessionID string

	reply, err := chat.Converse(ctx, sessionID, "")
	if err != nil {
		return err
	}
	sessionID = reply.SessionID
	printReply(reply)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" || line == "/exit" {
			return nil
		}
		if line == "" {
			continue
		}

		reply, err := chat.Converse(ctx, sessionID, line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		sessionID = reply.SessionID
		printReply(reply)
	}
}

// printReply renders one reply, listing candidate facts as a numbered
// menu the user can answer with "1,3" or "all".
func printReply(reply *agent.Reply) {
	if reply.Message != "" {
		fmt.Println(reply.Message)
	}

	if len(reply.Facts) > 0 {
		for i, f := range reply.Facts {
			fmt.Printf("  %d. [%s] %s\n", i+1, f.DomainID, f.Content)
		}
		fmt.Println("Reply with the numbers to save (e.g. 1,3), \"all\", or \"skip\".")
	}

	if reply.Draft != nil && reply.Status == agent.StatusAwaitingReview {
		fmt.Printf("  Name:        %s\n", reply.Draft.Name)
		fmt.Printf("  Description: %s\n", reply.Draft.Description)
		fmt.Printf("  Keywords:    %s\n", strings.Join(reply.Draft.Keywords, ", "))
		fmt.Println("Reply \"yes\" to save, \"no\" to discard, or describe changes.")
	}
}
