package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var projectName string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new fabula project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	return cmd
}

func runInit(projectName string) error {
	worldPath := "world.yaml"
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if _, err := os.Stat(worldPath); err == nil {
		return fmt.Errorf("%s already exists", worldPath)
	}

	configContents := fmt.Sprintf("project: %s\nversion: 1\nstudio_id: \"\"\n\ndatabase:\n  driver: sqlite\n  dsn: sqlite://%s.db\n", projectName, projectName)
	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.WriteFile(worldPath, []byte(sampleWorld), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", worldPath, err)
	}

	return nil
}

const sampleWorld = `world:
  id: w-sample
  title: The Lantern Road
  designer: ""
  version: 1.0.0
  starting_event: ev-gate

variables:
  - id: v-name
    title: name
    type: STRING
  - id: v-coins
    title: coins
    type: NUMBER
    initial: "3"

scenes:
  - id: sc-road
    title: The Road
    events:
      - id: ev-gate
        type: INPUT
        title: The Gate
        content: |
          A lantern sways over the toll gate. The keeper leans out.
          "Name, traveller?"
        input:
          id: i-name
          variable: v-name
      - id: ev-road
        type: CHOICE
        title: The Road
        content: |
          "{name}, is it," the keeper says. "Three coins to pass, or
          take the marsh for free. You carry {coins}."
        choices:
          - id: c-pay
            title: Pay the toll
          - id: c-marsh
            title: Brave the marsh
      - id: ev-city
        type: CHOICE
        title: The City
        content: The gates of the city open before you, {name}.
        ending: true

paths:
  - id: p-named
    origin: ev-gate
    destination: ev-road
    input: i-name
  - id: p-pay
    origin: ev-road
    destination: ev-city
    choice: c-pay
    conditions:
      - variable: v-coins
        operator: ">="
        value: "3"
    effects:
      - variable: v-coins
        operator: "-"
        value: "3"
  - id: p-marsh
    origin: ev-road
    destination: ev-city
    choice: c-marsh
`
