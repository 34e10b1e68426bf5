package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/it-worker-club/study-agent/internal/agent/driver"
	"github.com/it-worker-club/study-agent/internal/agent/model"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the assistant in the terminal",
	Long:  `Reads one message per line from stdin. Type /restart to start over or /quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		id, _ := cmd.Flags().GetString("conversation")
		if id == "" {
			id = uuid.NewString()
		}
		return chatLoop(cmd.Context(), app.Driver, id, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("conversation", "c", "", "Conversation id to resume")
}

func chatLoop(ctx context.Context, d *driver.Driver, id string, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Conversation %s\n> ", id)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			fmt.Fprint(out, "> ")
			continue
		case "/quit", "/exit":
			return nil
		case "/restart":
			if _, err := d.Restart(ctx, id); err != nil {
				fmt.Fprintf(out, "error: %v\n> ", err)
				continue
			}
			fmt.Fprint(out, "(restarted)\n> ")
			continue
		}

		res, err := d.Send(ctx, id, line)
		switch {
		case driver.IsClosed(err):
			fmt.Fprint(out, "(conversation ended; type /restart to begin again)\n> ")
			continue
		case err != nil:
			return err
		}
		printReplies(out, res.Replies)
		fmt.Fprint(out, "> ")
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func printReplies(out io.Writer, replies []model.Message) {
	for _, m := range replies {
		fmt.Fprintf(out, "[%s] %s\n", m.Step, m.Content)
	}
}
