package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"fabula/internal/story"
)

func (c *Client) PutWorld(ctx context.Context, w story.World) error {
	query := `
INSERT INTO worlds (id, studio_id, title, designer, version, starting_event_id, updated)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    studio_id = EXCLUDED.studio_id,
    title = EXCLUDED.title,
    designer = EXCLUDED.designer,
    version = EXCLUDED.version,
    starting_event_id = EXCLUDED.starting_event_id,
    updated = EXCLUDED.updated
`
	if _, err := c.pool.Exec(ctx, query, w.ID, w.StudioID, w.Title, w.Designer, w.Version, w.StartingEventID, w.Updated); err != nil {
		return fmt.Errorf("upserting world: %w", err)
	}
	return nil
}

func (c *Client) PutScene(ctx context.Context, s story.Scene) error {
	eventIDs, err := json.Marshal(s.EventIDs)
	if err != nil {
		return fmt.Errorf("marshaling event ids: %w", err)
	}
	query := `
INSERT INTO scenes (id, world_id, title, event_ids, updated)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    world_id = EXCLUDED.world_id,
    title = EXCLUDED.title,
    event_ids = EXCLUDED.event_ids,
    updated = EXCLUDED.updated
`
	if _, err := c.pool.Exec(ctx, query, s.ID, s.WorldID, s.Title, eventIDs, s.Updated); err != nil {
		return fmt.Errorf("upserting scene: %w", err)
	}
	return nil
}

func (c *Client) PutEvent(ctx context.Context, e story.Event) error {
	choiceIDs, err := json.Marshal(e.ChoiceIDs)
	if err != nil {
		return fmt.Errorf("marshaling choice ids: %w", err)
	}
	query := `
INSERT INTO events (id, world_id, scene_id, character_id, type, title, content, choice_ids, input_id, ending, updated)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
    world_id = EXCLUDED.world_id,
    scene_id = EXCLUDED.scene_id,
    character_id = EXCLUDED.character_id,
    type = EXCLUDED.type,
    title = EXCLUDED.title,
    content = EXCLUDED.content,
    choice_ids = EXCLUDED.choice_ids,
    input_id = EXCLUDED.input_id,
    ending = EXCLUDED.ending,
    updated = EXCLUDED.updated
`
	if _, err := c.pool.Exec(ctx, query, e.ID, e.WorldID, e.SceneID, e.CharacterID, string(e.Type), e.Title, e.Content, choiceIDs, e.InputID, e.Ending, e.Updated); err != nil {
		return fmt.Errorf("upserting event: %w", err)
	}
	return nil
}

func (c *Client) PutChoice(ctx context.Context, choice story.Choice) error {
	query := `
INSERT INTO choices (id, world_id, event_id, title, updated)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    world_id = EXCLUDED.world_id,
    event_id = EXCLUDED.event_id,
    title = EXCLUDED.title,
    updated = EXCLUDED.updated
`
	if _, err := c.pool.Exec(ctx, query, choice.ID, choice.WorldID, choice.EventID, choice.Title, choice.Updated); err != nil {
		return fmt.Errorf("upserting choice: %w", err)
	}
	return nil
}

func (c *Client) PutInput(ctx context.Context, input story.Input) error {
	query := `
INSERT INTO inputs (id, world_id, event_id, variable_id, updated)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    world_id = EXCLUDED.world_id,
    event_id = EXCLUDED.event_id,
    variable_id = EXCLUDED.variable_id,
    updated = EXCLUDED.updated
`
	if _, err := c.pool.Exec(ctx, query, input.ID, input.WorldID, input.EventID, input.VariableID, input.Updated); err != nil {
		return fmt.Errorf("upserting input: %w", err)
	}
	return nil
}

func (c *Client) PutPath(ctx context.Context, p story.Path) error {
	query := `
INSERT INTO paths (id, world_id, scene_id, title, origin_id, destination_id, destination_type, choice_id, input_id, conditions_type, updated)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
    world_id = EXCLUDED.world_id,
    scene_id = EXCLUDED.scene_id,
    title = EXCLUDED.title,
    origin_id = EXCLUDED.origin_id,
    destination_id = EXCLUDED.destination_id,
    destination_type = EXCLUDED.destination_type,
    choice_id = EXCLUDED.choice_id,
    input_id = EXCLUDED.input_id,
    conditions_type = EXCLUDED.conditions_type,
    updated = EXCLUDED.updated
`
	if _, err := c.pool.Exec(ctx, query, p.ID, p.WorldID, p.SceneID, p.Title, p.OriginID, p.DestinationID, string(p.DestinationType), p.ChoiceID, p.InputID, string(p.ConditionsType), p.Updated); err != nil {
		return fmt.Errorf("upserting path: %w", err)
	}
	return nil
}

func (c *Client) PutCondition(ctx context.Context, condition story.Condition) error {
	query := `
INSERT INTO conditions (id, world_id, path_id, variable_id, operator, value, updated)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    world_id = EXCLUDED.world_id,
    path_id = EXCLUDED.path_id,
    variable_id = EXCLUDED.variable_id,
    operator = EXCLUDED.operator,
    value = EXCLUDED.value,
    updated = EXCLUDED.updated
`
	if _, err := c.pool.Exec(ctx, query, condition.ID, condition.WorldID, condition.PathID, condition.VariableID, string(condition.Operator), condition.Value, condition.Updated); err != nil {
		return fmt.Errorf("upserting condition: %w", err)
	}
	return nil
}

func (c *Client) PutEffect(ctx context.Context, effect story.Effect) error {
	query := `
INSERT INTO effects (id, world_id, path_id, variable_id, operator, value, updated)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    world_id = EXCLUDED.world_id,
    path_id = EXCLUDED.path_id,
    variable_id = EXCLUDED.variable_id,
    operator = EXCLUDED.operator,
    value = EXCLUDED.value,
    updated = EXCLUDED.updated
`
	if _, err := c.pool.Exec(ctx, query, effect.ID, effect.WorldID, effect.PathID, effect.VariableID, string(effect.Operator), effect.Value, effect.Updated); err != nil {
		return fmt.Errorf("upserting effect: %w", err)
	}
	return nil
}

func (c *Client) PutVariable(ctx context.Context, v story.Variable) error {
	query := `
INSERT INTO variables (id, world_id, title, type, initial_value, updated)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    world_id = EXCLUDED.world_id,
    title = EXCLUDED.title,
    type = EXCLUDED.type,
    initial_value = EXCLUDED.initial_value,
    updated = EXCLUDED.updated
`
	if _, err := c.pool.Exec(ctx, query, v.ID, v.WorldID, v.Title, string(v.Type), v.InitialValue, v.Updated); err != nil {
		return fmt.Errorf("upserting variable: %w", err)
	}
	return nil
}

func (c *Client) PutCharacter(ctx context.Context, ch story.Character) error {
	query := `
INSERT INTO characters (id, world_id, title, description, updated)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    world_id = EXCLUDED.world_id,
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    updated = EXCLUDED.updated
`
	if _, err := c.pool.Exec(ctx, query, ch.ID, ch.WorldID, ch.Title, ch.Description, ch.Updated); err != nil {
		return fmt.Errorf("upserting character: %w", err)
	}
	return nil
}

func (c *Client) DeleteWorldContent(ctx context.Context, worldID string) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback(ctx)

	tables := []string{"scenes", "events", "choices", "inputs", "paths", "conditions", "effects", "variables", "characters"}
	for _, table := range tables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE world_id = $1", table), worldID); err != nil {
			return fmt.Errorf("deleting %s: %w", table, err)
		}
	}
	if _, err := tx.Exec(ctx, "DELETE FROM worlds WHERE id = $1", worldID); err != nil {
		return fmt.Errorf("deleting world: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}
