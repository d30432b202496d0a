package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/lexhub/lexchat/chatapi"
	"github.com/lexhub/lexchat/chatutil"
	"github.com/lexhub/lexchat/orchestrator"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat against a running lexchat server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		serverURL, _ := cmd.Flags().GetString("server")
		token, _ := cmd.Flags().GetString("token")
		userID, _ := cmd.Flags().GetString("user")
		if token == "" {
			return errors.New("--token is required, mint one with `lexchat token`")
		}

		client := chatapi.NewClient(serverURL+"/api/v1",
			chatapi.WithToken(token),
			chatapi.WithSendRateLimit(rate.Every(time.Second), 3),
		)
		orch := orchestrator.New(client, userID)
		orch.Subscribe(orchestrator.EventErrorSet, func(e orchestrator.Event) {
			fmt.Fprintf(os.Stderr, "error: %s\n", e.Err.Message)
			orch.ClearError()
		})

		ctx := cmd.Context()
		if err := orch.FetchSessions(ctx); err != nil {
			return err
		}
		printSessions(orch.Snapshot())

		fmt.Println(`Type a message, or /new, /list, /switch <id>, /delete <id>, /quit.`)
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			switch {
			case line == "/quit":
				return nil
			case line == "/new":
				// Failures surface through the error event subscription.
				_ = orch.CreateNewSession(ctx)
			case line == "/list":
				_ = orch.FetchSessions(ctx)
				printSessions(orch.Snapshot())
			case strings.HasPrefix(line, "/switch "):
				_ = orch.SelectSession(ctx, strings.TrimPrefix(line, "/switch "))
				printMessages(orch.Snapshot())
			case strings.HasPrefix(line, "/delete "):
				_ = orch.DeleteSession(ctx, strings.TrimPrefix(line, "/delete "))
			case line == "":
				continue
			default:
				if err := orch.SendMessage(ctx, line, nil); err == nil {
					printLastReply(orch.Snapshot())
				}
			}
		}
	},
}

func init() {
	chatCmd.Flags().String("server", "http://localhost:28090", "base URL of the lexchat server")
	chatCmd.Flags().String("token", "", "bearer token")
	chatCmd.Flags().String("user", "dev", "user identifier forwarded on session creation")
	rootCmd.AddCommand(chatCmd)
}

func printSessions(state orchestrator.State) {
	now := time.Now()
	groups := chatutil.GroupSessionsByDate(state.Sessions, now, time.Local)
	for _, group := range groups {
		fmt.Printf("%s\n", group.Label)
		for _, session := range group.Sessions {
			marker := " "
			if session.ID == state.ActiveSessionID {
				marker = "*"
			}
			preview := session.Preview
			if preview == "" {
				preview = chatutil.EmptyPreview
			}
			fmt.Printf(" %s %s  %s  (%s)\n", marker, session.ID, preview, chatutil.FormatRelativeTimestamp(session.UpdatedTs, now))
		}
	}
}

func printMessages(state orchestrator.State) {
	for _, message := range state.Messages {
		fmt.Printf("[%s] %s\n", message.Role, message.Content)
	}
}

func printLastReply(state orchestrator.State) {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Role == chatapi.RoleAssistant {
			fmt.Println(state.Messages[i].Content)
			return
		}
	}
}
