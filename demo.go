package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted conversation end to end",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		testQueries := []struct {
			description string
			query       string
		}{
			{description: "Course inquiry", query: "推荐Python课程"},
			{description: "Course feedback", query: "满意"},
			{description: "Plan request", query: "好的，请帮我制定学习计划"},
			{description: "Plan approval", query: "同意"},
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		conversationID := "demo-" + uuid.NewString()
		for i, test := range testQueries {
			fmt.Fprintf(out, "\nTest %d: %s\n", i+1, test.description)
			fmt.Fprintf(out, "Query: %q\n", test.query)

			res, err := app.Driver.Send(ctx, conversationID, test.query)
			if err != nil {
				return fmt.Errorf("turn %d: %w", i+1, err)
			}
			printReplies(out, res.Replies)
			fmt.Fprintf(out, "signal=%s loop_count=%d\n", res.Signal, res.State.LoopCount)

			time.Sleep(200 * time.Millisecond)
		}
		fmt.Fprintln(out, "\nDemo completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
