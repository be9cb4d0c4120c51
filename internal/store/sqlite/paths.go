package sqlite

import (
	"context"
	"fmt"
	"strings"

	"fabula/internal/story"
)

const pathColumns = "id, world_id, scene_id, title, origin_id, destination_id, destination_type, choice_id, input_id, conditions_type, updated"

func (c *Client) Paths(ctx context.Context, worldID string) ([]story.Path, error) {
	query := fmt.Sprintf("SELECT %s FROM paths WHERE world_id = ? ORDER BY updated, id", pathColumns)
	return c.queryPaths(ctx, query, worldID)
}

func (c *Client) PathsFromChoice(ctx context.Context, choiceID string) ([]story.Path, error) {
	query := fmt.Sprintf("SELECT %s FROM paths WHERE choice_id = ? ORDER BY updated, id", pathColumns)
	return c.queryPaths(ctx, query, choiceID)
}

func (c *Client) PathsFromInput(ctx context.Context, inputID string) ([]story.Path, error) {
	query := fmt.Sprintf("SELECT %s FROM paths WHERE input_id = ? ORDER BY updated, id", pathColumns)
	return c.queryPaths(ctx, query, inputID)
}

func (c *Client) PassthroughPaths(ctx context.Context, eventID string) ([]story.Path, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM paths WHERE origin_id = ? AND choice_id = '' AND input_id = '' ORDER BY updated, id",
		pathColumns,
	)
	return c.queryPaths(ctx, query, eventID)
}

func (c *Client) queryPaths(ctx context.Context, query string, arg string) ([]story.Path, error) {
	rows, err := c.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("querying paths: %w", err)
	}
	defer rows.Close()

	var paths []story.Path
	for rows.Next() {
		var (
			p     story.Path
			dType string
			cType string
		)
		if err := rows.Scan(&p.ID, &p.WorldID, &p.SceneID, &p.Title, &p.OriginID, &p.DestinationID, &dType, &p.ChoiceID, &p.InputID, &cType, &p.Updated); err != nil {
			return nil, fmt.Errorf("scanning path: %w", err)
		}
		p.DestinationType = story.DestinationType(dType)
		p.ConditionsType = story.ConditionsType(cType)
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (c *Client) ConditionsByPaths(ctx context.Context, pathIDs []string) ([]story.Condition, error) {
	if len(pathIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?, ", len(pathIDs)-1) + "?"
	query := fmt.Sprintf(`
	SELECT id, world_id, path_id, variable_id, operator, value, updated
	FROM conditions WHERE path_id IN (%s) ORDER BY updated, id
	`, placeholders)

	args := make([]any, len(pathIDs))
	for i, id := range pathIDs {
		args[i] = id
	}
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conditions: %w", err)
	}
	defer rows.Close()

	var conditions []story.Condition
	for rows.Next() {
		var (
			cond story.Condition
			op   string
		)
		if err := rows.Scan(&cond.ID, &cond.WorldID, &cond.PathID, &cond.VariableID, &op, &cond.Value, &cond.Updated); err != nil {
			return nil, fmt.Errorf("scanning condition: %w", err)
		}
		cond.Operator = story.CompareOperator(op)
		conditions = append(conditions, cond)
	}
	return conditions, rows.Err()
}

func (c *Client) EffectsByPath(ctx context.Context, pathID string) ([]story.Effect, error) {
	query := `
	SELECT id, world_id, path_id, variable_id, operator, value, updated
	FROM effects WHERE path_id = ? ORDER BY updated, id
	`
	rows, err := c.db.QueryContext(ctx, query, pathID)
	if err != nil {
		return nil, fmt.Errorf("querying effects for path %s: %w", pathID, err)
	}
	defer rows.Close()

	var effects []story.Effect
	for rows.Next() {
		var (
			effect story.Effect
			op     string
		)
		if err := rows.Scan(&effect.ID, &effect.WorldID, &effect.PathID, &effect.VariableID, &op, &effect.Value, &effect.Updated); err != nil {
			return nil, fmt.Errorf("scanning effect: %w", err)
		}
		effect.Operator = story.SetOperator(op)
		effects = append(effects, effect)
	}
	return effects, rows.Err()
}
