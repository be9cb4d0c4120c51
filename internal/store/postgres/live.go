package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"fabula/internal/story"
)

const liveEventColumns = "id, world_id, destination, origin, prev_id, next_id, result, state, type, version, updated"

func (c *Client) LiveEvent(ctx context.Context, id string) (*story.LiveEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM live_events WHERE id = $1", liveEventColumns)
	row := c.pool.QueryRow(ctx, query, id)
	event, err := scanLiveEvent(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying live event %s: %w", id, err)
	}
	return event, nil
}

func (c *Client) PutLiveEvent(ctx context.Context, event story.LiveEvent) error {
	state, err := json.Marshal(event.State)
	if err != nil {
		return fmt.Errorf("marshaling live event state: %w", err)
	}
	var result []byte
	if event.Result != nil {
		result, err = json.Marshal(event.Result)
		if err != nil {
			return fmt.Errorf("marshaling live event result: %w", err)
		}
	}

	query := `
INSERT INTO live_events (id, world_id, destination, origin, prev_id, next_id, result, state, type, version, updated)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
    world_id = EXCLUDED.world_id,
    destination = EXCLUDED.destination,
    origin = EXCLUDED.origin,
    prev_id = EXCLUDED.prev_id,
    next_id = EXCLUDED.next_id,
    result = EXCLUDED.result,
    state = EXCLUDED.state,
    type = EXCLUDED.type,
    version = EXCLUDED.version,
    updated = EXCLUDED.updated
`
	if _, err := c.pool.Exec(ctx, query, event.ID, event.WorldID, event.Destination, event.Origin, event.PrevID, event.NextID, result, state, string(event.Type), event.Version, event.Updated); err != nil {
		return fmt.Errorf("upserting live event: %w", err)
	}
	return nil
}

func (c *Client) SetLiveEventResult(ctx context.Context, id string, result story.LiveEventResult, nextID string) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	query := `UPDATE live_events SET result = $1, next_id = $2, updated = $3 WHERE id = $4`
	tag, err := c.pool.Exec(ctx, query, raw, nextID, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("setting result on live event %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("live event %s not found", id)
	}
	return nil
}

func (c *Client) RecentLiveEvents(ctx context.Context, worldID, version string, limit int) ([]story.LiveEvent, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM live_events WHERE world_id = $1 AND version = $2 ORDER BY updated DESC, id LIMIT $3",
		liveEventColumns,
	)
	rows, err := c.pool.Query(ctx, query, worldID, version, limit)
	if err != nil {
		return nil, fmt.Errorf("querying live events for world %s: %w", worldID, err)
	}
	defer rows.Close()

	var events []story.LiveEvent
	for rows.Next() {
		event, err := scanLiveEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning live event: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func (c *Client) DeleteLiveEvents(ctx context.Context, worldID string) error {
	if _, err := c.pool.Exec(ctx, "DELETE FROM live_events WHERE world_id = $1", worldID); err != nil {
		return fmt.Errorf("deleting live events for world %s: %w", worldID, err)
	}
	return nil
}

func scanLiveEvent(scan func(...any) error) (*story.LiveEvent, error) {
	var (
		event     story.LiveEvent
		result    []byte
		state     []byte
		eventType string
	)
	if err := scan(&event.ID, &event.WorldID, &event.Destination, &event.Origin, &event.PrevID, &event.NextID, &result, &state, &eventType, &event.Version, &event.Updated); err != nil {
		return nil, err
	}
	event.Type = story.LiveEventType(eventType)
	if len(result) > 0 {
		var r story.LiveEventResult
		if err := json.Unmarshal(result, &r); err != nil {
			return nil, fmt.Errorf("unmarshaling result: %w", err)
		}
		event.Result = &r
	}
	if err := json.Unmarshal(state, &event.State); err != nil {
		return nil, fmt.Errorf("unmarshaling state: %w", err)
	}
	return &event, nil
}

func (c *Client) Bookmark(ctx context.Context, id string) (*story.Bookmark, error) {
	query := `SELECT id, world_id, title, live_event_id, version, updated FROM bookmarks WHERE id = $1`
	var b story.Bookmark
	err := c.pool.QueryRow(ctx, query, id).Scan(&b.ID, &b.WorldID, &b.Title, &b.LiveEventID, &b.Version, &b.Updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying bookmark %s: %w", id, err)
	}
	return &b, nil
}

func (c *Client) PutBookmark(ctx context.Context, bookmark story.Bookmark) error {
	query := `
INSERT INTO bookmarks (id, world_id, title, live_event_id, version, updated)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    world_id = EXCLUDED.world_id,
    title = EXCLUDED.title,
    live_event_id = EXCLUDED.live_event_id,
    version = EXCLUDED.version,
    updated = EXCLUDED.updated
`
	if _, err := c.pool.Exec(ctx, query, bookmark.ID, bookmark.WorldID, bookmark.Title, bookmark.LiveEventID, bookmark.Version, bookmark.Updated); err != nil {
		return fmt.Errorf("upserting bookmark: %w", err)
	}
	return nil
}

func (c *Client) DeleteBookmark(ctx context.Context, id string) error {
	if _, err := c.pool.Exec(ctx, "DELETE FROM bookmarks WHERE id = $1", id); err != nil {
		return fmt.Errorf("deleting bookmark %s: %w", id, err)
	}
	return nil
}
