package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fabula/internal/story"
)

func (c *Client) World(ctx context.Context, id string) (*story.World, error) {
	query := `
SELECT id, studio_id, title, designer, version, starting_event_id, updated
FROM worlds WHERE id = $1
`
	var w story.World
	err := c.pool.QueryRow(ctx, query, id).Scan(
		&w.ID, &w.StudioID, &w.Title, &w.Designer, &w.Version, &w.StartingEventID, &w.Updated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying world %s: %w", id, err)
	}
	return &w, nil
}

func (c *Client) Worlds(ctx context.Context) ([]story.World, error) {
	query := `
SELECT id, studio_id, title, designer, version, starting_event_id, updated
FROM worlds ORDER BY title, id
`
	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying worlds: %w", err)
	}
	defer rows.Close()

	var worlds []story.World
	for rows.Next() {
		var w story.World
		if err := rows.Scan(&w.ID, &w.StudioID, &w.Title, &w.Designer, &w.Version, &w.StartingEventID, &w.Updated); err != nil {
			return nil, fmt.Errorf("scanning world: %w", err)
		}
		worlds = append(worlds, w)
	}
	return worlds, rows.Err()
}

func (c *Client) Scene(ctx context.Context, id string) (*story.Scene, error) {
	query := `SELECT id, world_id, title, event_ids, updated FROM scenes WHERE id = $1`
	var (
		s        story.Scene
		eventIDs []byte
	)
	err := c.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.WorldID, &s.Title, &eventIDs, &s.Updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying scene %s: %w", id, err)
	}
	if err := json.Unmarshal(eventIDs, &s.EventIDs); err != nil {
		return nil, fmt.Errorf("unmarshaling scene %s event ids: %w", id, err)
	}
	return &s, nil
}

func (c *Client) Event(ctx context.Context, id string) (*story.Event, error) {
	query := `
SELECT id, world_id, scene_id, character_id, type, title, content, choice_ids, input_id, ending, updated
FROM events WHERE id = $1
`
	row := c.pool.QueryRow(ctx, query, id)
	e, err := scanEvent(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying event %s: %w", id, err)
	}
	return e, nil
}

func (c *Client) Events(ctx context.Context, worldID string) ([]story.Event, error) {
	query := `
SELECT id, world_id, scene_id, character_id, type, title, content, choice_ids, input_id, ending, updated
FROM events WHERE world_id = $1 ORDER BY updated, id
`
	rows, err := c.pool.Query(ctx, query, worldID)
	if err != nil {
		return nil, fmt.Errorf("querying events for world %s: %w", worldID, err)
	}
	defer rows.Close()

	var events []story.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (c *Client) SceneEvents(ctx context.Context, sceneID string) ([]story.Event, error) {
	query := `
SELECT id, world_id, scene_id, character_id, type, title, content, choice_ids, input_id, ending, updated
FROM events WHERE scene_id = $1 ORDER BY updated, id
`
	rows, err := c.pool.Query(ctx, query, sceneID)
	if err != nil {
		return nil, fmt.Errorf("querying events for scene %s: %w", sceneID, err)
	}
	defer rows.Close()

	var events []story.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func scanEvent(scan func(...any) error) (*story.Event, error) {
	var (
		e         story.Event
		eventType string
		choiceIDs []byte
	)
	if err := scan(&e.ID, &e.WorldID, &e.SceneID, &e.CharacterID, &eventType, &e.Title, &e.Content, &choiceIDs, &e.InputID, &e.Ending, &e.Updated); err != nil {
		return nil, err
	}
	e.Type = story.EventType(eventType)
	if err := json.Unmarshal(choiceIDs, &e.ChoiceIDs); err != nil {
		return nil, fmt.Errorf("unmarshaling choice ids: %w", err)
	}
	return &e, nil
}

func (c *Client) Choice(ctx context.Context, id string) (*story.Choice, error) {
	query := `SELECT id, world_id, event_id, title, updated FROM choices WHERE id = $1`
	var choice story.Choice
	err := c.pool.QueryRow(ctx, query, id).Scan(&choice.ID, &choice.WorldID, &choice.EventID, &choice.Title, &choice.Updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying choice %s: %w", id, err)
	}
	return &choice, nil
}

func (c *Client) Input(ctx context.Context, id string) (*story.Input, error) {
	query := `SELECT id, world_id, event_id, variable_id, updated FROM inputs WHERE id = $1`
	var input story.Input
	err := c.pool.QueryRow(ctx, query, id).Scan(&input.ID, &input.WorldID, &input.EventID, &input.VariableID, &input.Updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying input %s: %w", id, err)
	}
	return &input, nil
}

func (c *Client) Character(ctx context.Context, id string) (*story.Character, error) {
	query := `SELECT id, world_id, title, description, updated FROM characters WHERE id = $1`
	var ch story.Character
	err := c.pool.QueryRow(ctx, query, id).Scan(&ch.ID, &ch.WorldID, &ch.Title, &ch.Description, &ch.Updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying character %s: %w", id, err)
	}
	return &ch, nil
}

func (c *Client) Variables(ctx context.Context, worldID string) ([]story.Variable, error) {
	query := `
SELECT id, world_id, title, type, initial_value, updated
FROM variables WHERE world_id = $1 ORDER BY updated, id
`
	rows, err := c.pool.Query(ctx, query, worldID)
	if err != nil {
		return nil, fmt.Errorf("querying variables for world %s: %w", worldID, err)
	}
	defer rows.Close()

	var vars []story.Variable
	for rows.Next() {
		var (
			v     story.Variable
			vType string
		)
		if err := rows.Scan(&v.ID, &v.WorldID, &v.Title, &vType, &v.InitialValue, &v.Updated); err != nil {
			return nil, fmt.Errorf("scanning variable: %w", err)
		}
		v.Type = story.VariableType(vType)
		vars = append(vars, v)
	}
	return vars, rows.Err()
}
