package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"
	"github.com/tbxark/formwizard/assist"
	"github.com/tbxark/formwizard/draft"
	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/types"
	"github.com/tbxark/formwizard/wizard"
)

var (
	fillDraftKey string
	fillPrefill  string
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill in an application interactively in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFill(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	fillCmd.Flags().StringVar(&fillDraftKey, "draft", "terminal", "draft key to resume from and save to")
	fillCmd.Flags().StringVar(&fillPrefill, "prefill", "", "JSON file with answers to copy over the draft, e.g. a breed chosen in the catalog")
}

func runFill(ctx context.Context, in io.Reader, out io.Writer) error {
	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Close(); err != nil {
			slog.Warn("Failed to close runtime", "error", err)
		}
	}()

	assistant, err := newAssistant(ctx, cfg.Assistant)
	if err != nil {
		return err
	}
	controller := wizard.New(ctx, draft.NewSlot(d.cache, "", fillDraftKey), d.gateway)
	if fillPrefill != "" {
		data, err := os.ReadFile(fillPrefill)
		if err != nil {
			return fmt.Errorf("reading prefill %s: %w", fillPrefill, err)
		}
		initial, err := form.Unmarshal(data)
		if err != nil {
			return err
		}
		if err := controller.Prefill(ctx, initial); err != nil {
			return err
		}
	}
	unsubscribe := controller.Subscribe(func(change wizard.StepChange) {
		slog.Debug("Step changed", "from", change.From, "to", change.To, "reason", change.Reason)
	})
	defer unsubscribe()

	history := assist.NewTranscript(0)
	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent: assist.NewAgent(
			"IntakeAssistant",
			"Helps applicants fill and submit the puppy adoption application",
			assistant, controller, history,
		),
	})

	fmt.Fprintf(out, "Assistant: %s\n", assistant.Greeting(controller, history))
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "\nYou: ")
		line, rErr := reader.ReadString('\n')
		input := strings.TrimSpace(line)
		if input == "" && rErr != nil {
			if errors.Is(rErr, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return rErr
		}
		if input == "quit" || input == "exit" {
			return nil
		}

		iter := runner.Run(ctx, []adk.Message{schema.UserMessage(input)})
		for {
			event, ok := iter.Next()
			if !ok {
				break
			}
			if event.Err != nil {
				return event.Err
			}
			msg, mErr := event.Output.MessageOutput.GetMessage()
			if mErr != nil {
				return mErr
			}
			fmt.Fprintf(out, "\nAssistant: %s\n", msg.Content)
		}
		if controller.State().Phase == types.PhaseSubmitted {
			history.Clear()
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
