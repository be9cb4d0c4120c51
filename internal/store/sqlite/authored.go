package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"fabula/internal/story"
)

func (c *Client) PutWorld(ctx context.Context, w story.World) error {
	query := `
	INSERT INTO worlds (id, studio_id, title, designer, version, starting_event_id, updated)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		studio_id = excluded.studio_id,
		title = excluded.title,
		designer = excluded.designer,
		version = excluded.version,
		starting_event_id = excluded.starting_event_id,
		updated = excluded.updated
	`
	_, err := c.db.ExecContext(ctx, query, w.ID, w.StudioID, w.Title, w.Designer, w.Version, w.StartingEventID, w.Updated)
	if err != nil {
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
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		world_id = excluded.world_id,
		title = excluded.title,
		event_ids = excluded.event_ids,
		updated = excluded.updated
	`
	if _, err := c.db.ExecContext(ctx, query, s.ID, s.WorldID, s.Title, eventIDs, s.Updated); err != nil {
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
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		world_id = excluded.world_id,
		scene_id = excluded.scene_id,
		character_id = excluded.character_id,
		type = excluded.type,
		title = excluded.title,
		content = excluded.content,
		choice_ids = excluded.choice_ids,
		input_id = excluded.input_id,
		ending = excluded.ending,
		updated = excluded.updated
	`
	if _, err := c.db.ExecContext(ctx, query, e.ID, e.WorldID, e.SceneID, e.CharacterID, string(e.Type), e.Title, e.Content, choiceIDs, e.InputID, boolToInt(e.Ending), e.Updated); err != nil {
		return fmt.Errorf("upserting event: %w", err)
	}
	return nil
}

func (c *Client) PutChoice(ctx context.Context, choice story.Choice) error {
	query := `
	INSERT INTO choices (id, world_id, event_id, title, updated)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		world_id = excluded.world_id,
		event_id = excluded.event_id,
		title = excluded.title,
		updated = excluded.updated
	`
	if _, err := c.db.ExecContext(ctx, query, choice.ID, choice.WorldID, choice.EventID, choice.Title, choice.Updated); err != nil {
		return fmt.Errorf("upserting choice: %w", err)
	}
	return nil
}

func (c *Client) PutInput(ctx context.Context, input story.Input) error {
	query := `
	INSERT INTO inputs (id, world_id, event_id, variable_id, updated)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		world_id = excluded.world_id,
		event_id = excluded.event_id,
		variable_id = excluded.variable_id,
		updated = excluded.updated
	`
	if _, err := c.db.ExecContext(ctx, query, input.ID, input.WorldID, input.EventID, input.VariableID, input.Updated); err != nil {
		return fmt.Errorf("upserting input: %w", err)
	}
	return nil
}

func (c *Client) PutPath(ctx context.Context, p story.Path) error {
	query := `
	INSERT INTO paths (id, world_id, scene_id, title, origin_id, destination_id, destination_type, choice_id, input_id, conditions_type, updated)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		world_id = excluded.world_id,
		scene_id = excluded.scene_id,
		title = excluded.title,
		origin_id = excluded.origin_id,
		destination_id = excluded.destination_id,
		destination_type = excluded.destination_type,
		choice_id = excluded.choice_id,
		input_id = excluded.input_id,
		conditions_type = excluded.conditions_type,
		updated = excluded.updated
	`
	if _, err := c.db.ExecContext(ctx, query, p.ID, p.WorldID, p.SceneID, p.Title, p.OriginID, p.DestinationID, string(p.DestinationType), p.ChoiceID, p.InputID, string(p.ConditionsType), p.Updated); err != nil {
		return fmt.Errorf("upserting path: %w", err)
	}
	return nil
}

func (c *Client) PutCondition(ctx context.Context, condition story.Condition) error {
	query := `
	INSERT INTO conditions (id, world_id, path_id, variable_id, operator, value, updated)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		world_id = excluded.world_id,
		path_id = excluded.path_id,
		variable_id = excluded.variable_id,
		operator = excluded.operator,
		value = excluded.value,
		updated = excluded.updated
	`
	if _, err := c.db.ExecContext(ctx, query, condition.ID, condition.WorldID, condition.PathID, condition.VariableID, string(condition.Operator), condition.Value, condition.Updated); err != nil {
		return fmt.Errorf("upserting condition: %w", err)
	}
	return nil
}

func (c *Client) PutEffect(ctx context.Context, effect story.Effect) error {
	query := `
	INSERT INTO effects (id, world_id, path_id, variable_id, operator, value, updated)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		world_id = excluded.world_id,
		path_id = excluded.path_id,
		variable_id = excluded.variable_id,
		operator = excluded.operator,
		value = excluded.value,
		updated = excluded.updated
	`
	if _, err := c.db.ExecContext(ctx, query, effect.ID, effect.WorldID, effect.PathID, effect.VariableID, string(effect.Operator), effect.Value, effect.Updated); err != nil {
		return fmt.Errorf("upserting effect: %w", err)
	}
	return nil
}

func (c *Client) PutVariable(ctx context.Context, v story.Variable) error {
	query := `
	INSERT INTO variables (id, world_id, title, type, initial_value, updated)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		world_id = excluded.world_id,
		title = excluded.title,
		type = excluded.type,
		initial_value = excluded.initial_value,
		updated = excluded.updated
	`
	if _, err := c.db.ExecContext(ctx, query, v.ID, v.WorldID, v.Title, string(v.Type), v.InitialValue, v.Updated); err != nil {
		return fmt.Errorf("upserting variable: %w", err)
	}
	return nil
}

func (c *Client) PutCharacter(ctx context.Context, ch story.Character) error {
	query := `
	INSERT INTO characters (id, world_id, title, description, updated)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		world_id = excluded.world_id,
		title = excluded.title,
		description = excluded.description,
		updated = excluded.updated
	`
	if _, err := c.db.ExecContext(ctx, query, ch.ID, ch.WorldID, ch.Title, ch.Description, ch.Updated); err != nil {
		return fmt.Errorf("upserting character: %w", err)
	}
	return nil
}

func (c *Client) DeleteWorldContent(ctx context.Context, worldID string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback()

	tables := []string{"scenes", "events", "choices", "inputs", "paths", "conditions", "effects", "variables", "characters"}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE world_id = ?", table), worldID); err != nil {
			return fmt.Errorf("deleting %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM worlds WHERE id = ?", worldID); err != nil {
		return fmt.Errorf("deleting world: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
