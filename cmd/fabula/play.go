package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fabula/internal/config"
	"fabula/internal/engine"
	"fabula/internal/store"
	"fabula/internal/story"
	"fabula/internal/template"
)

func playCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <world-id>",
		Short: "Play a stored world in an interactive shell",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlay,
	}
	return cmd
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	shell := &playShell{
		db:      db,
		engine:  newEngine(cfg, db, nil),
		worldID: args[0],
		in:      bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
	}
	return shell.run(ctx)
}

type playShell struct {
	db      store.Store
	engine  *engine.Engine
	worldID string
	in      *bufio.Scanner
	out     *os.File
}

func (sh *playShell) run(ctx context.Context) error {
	liveEvent, err := sh.engine.ResumeOrInitialize(ctx, sh.worldID)
	if err != nil {
		return err
	}

	for {
		event, err := sh.db.Event(ctx, liveEvent.Destination)
		if err != nil {
			return err
		}
		if event == nil {
			return fmt.Errorf("event %s not found", liveEvent.Destination)
		}

		sh.show(event, liveEvent.State)

		if event.Ending {
			fmt.Fprintln(sh.out, "\nThe story ends here. Type 'restart' to play again or 'quit' to leave.")
			if !sh.endingPrompt(ctx, &liveEvent) {
				return nil
			}
			continue
		}

		var outcome story.Outcome
		switch {
		case event.Type == story.EventInput:
			outcome, err = sh.promptInput(ctx, liveEvent)
		case len(event.ChoiceIDs) > 0:
			outcome, err = sh.promptChoice(ctx, liveEvent, event)
		default:
			outcome, err = sh.engine.ResolvePassthrough(ctx, sh.worldID, liveEvent.Destination)
		}
		if err != nil {
			return err
		}
		if outcome == nil {
			// The player quit mid-prompt.
			return nil
		}

		switch o := outcome.(type) {
		case story.NextStep:
			if o.Loopback {
				fmt.Fprintln(sh.out, "\nThat way leads nowhere; you find yourself back where you chose it.")
			}
			liveEvent = &o.LiveEvent
		case story.NoOpenPath:
			fmt.Fprintln(sh.out, "\nNo route is open from here right now.")
			if event.Type != story.EventInput && len(event.ChoiceIDs) == 0 {
				// A stuck passthrough event would otherwise redisplay forever.
				fmt.Fprintln(sh.out, "Type 'restart' to start over or 'quit' to leave.")
				if !sh.endingPrompt(ctx, &liveEvent) {
					return nil
				}
			}
		case story.InvalidInput:
			fmt.Fprintf(sh.out, "\n%s\n", o.Reason)
		}
	}
}

func (sh *playShell) show(event *story.Event, state story.VariableState) {
	fmt.Fprintf(sh.out, "\n== %s ==\n", event.Title)
	rendered := template.Render(event.Content, state, template.Options{})
	if rendered.Text != "" {
		fmt.Fprintln(sh.out, rendered.Text)
	}
}

func (sh *playShell) promptChoice(ctx context.Context, liveEvent *story.LiveEvent, event *story.Event) (story.Outcome, error) {
	choices := make([]story.Choice, 0, len(event.ChoiceIDs))
	for _, id := range event.ChoiceIDs {
		choice, err := sh.db.Choice(ctx, id)
		if err != nil {
			return nil, err
		}
		if choice != nil {
			choices = append(choices, *choice)
		}
	}

	for i, choice := range choices {
		fmt.Fprintf(sh.out, "  %d) %s\n", i+1, choice.Title)
	}

	for {
		line, ok := sh.read("> ")
		if !ok {
			return nil, nil
		}
		switch line {
		case "quit":
			return nil, nil
		case "restart":
			return sh.engine.Restart(ctx, sh.worldID)
		}
		index, err := strconv.Atoi(line)
		if err != nil || index < 1 || index > len(choices) {
			fmt.Fprintf(sh.out, "Pick 1-%d, 'restart', or 'quit'.\n", len(choices))
			continue
		}
		return sh.engine.ResolveChoice(ctx, sh.worldID, liveEvent.Destination, choices[index-1].ID)
	}
}

func (sh *playShell) promptInput(ctx context.Context, liveEvent *story.LiveEvent) (story.Outcome, error) {
	line, ok := sh.read("> ")
	if !ok {
		return nil, nil
	}
	switch line {
	case "quit":
		return nil, nil
	case "restart":
		return sh.engine.Restart(ctx, sh.worldID)
	}
	return sh.engine.ResolveInput(ctx, sh.worldID, liveEvent.Destination, line)
}

// endingPrompt returns false when the player quits; on restart it swaps the
// live event in place.
func (sh *playShell) endingPrompt(ctx context.Context, liveEvent **story.LiveEvent) bool {
	for {
		line, ok := sh.read("> ")
		if !ok || line == "quit" {
			return false
		}
		if line != "restart" {
			fmt.Fprintln(sh.out, "Type 'restart' or 'quit'.")
			continue
		}
		outcome, err := sh.engine.Restart(ctx, sh.worldID)
		if err != nil {
			fmt.Fprintf(sh.out, "restart failed: %v\n", err)
			return false
		}
		if step, ok := outcome.(story.NextStep); ok {
			*liveEvent = &step.LiveEvent
			return true
		}
		fmt.Fprintln(sh.out, "restart did not produce a step")
		return false
	}
}

func (sh *playShell) read(prompt string) (string, bool) {
	fmt.Fprint(sh.out, prompt)
	if !sh.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(sh.in.Text()), true
}
