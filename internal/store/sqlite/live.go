package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fabula/internal/story"
)

const liveEventColumns = "id, world_id, destination, origin, prev_id, next_id, result, state, type, version, updated"

func (c *Client) LiveEvent(ctx context.Context, id string) (*story.LiveEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM live_events WHERE id = ?", liveEventColumns)
	row := c.db.QueryRowContext(ctx, query, id)
	event, err := scanLiveEvent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
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
	var result sql.NullString
	if event.Result != nil {
		raw, err := json.Marshal(event.Result)
		if err != nil {
			return fmt.Errorf("marshaling live event result: %w", err)
		}
		result = sql.NullString{String: string(raw), Valid: true}
	}

	query := `
	INSERT INTO live_events (id, world_id, destination, origin, prev_id, next_id, result, state, type, version, updated)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		world_id = excluded.world_id,
		destination = excluded.destination,
		origin = excluded.origin,
		prev_id = excluded.prev_id,
		next_id = excluded.next_id,
		result = excluded.result,
		state = excluded.state,
		type = excluded.type,
		version = excluded.version,
		updated = excluded.updated
	`
	if _, err := c.db.ExecContext(ctx, query, event.ID, event.WorldID, event.Destination, event.Origin, event.PrevID, event.NextID, result, state, string(event.Type), event.Version, event.Updated); err != nil {
		return fmt.Errorf("upserting live event: %w", err)
	}
	return nil
}

func (c *Client) SetLiveEventResult(ctx context.Context, id string, result story.LiveEventResult, nextID string) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	query := `UPDATE live_events SET result = ?, next_id = ?, updated = ? WHERE id = ?`
	res, err := c.db.ExecContext(ctx, query, string(raw), nextID, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("setting result on live event %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking result update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("live event %s not found", id)
	}
	return nil
}

func (c *Client) RecentLiveEvents(ctx context.Context, worldID, version string, limit int) ([]story.LiveEvent, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM live_events WHERE world_id = ? AND version = ? ORDER BY updated DESC, id LIMIT ?",
		liveEventColumns,
	)
	rows, err := c.db.QueryContext(ctx, query, worldID, version, limit)
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
	if _, err := c.db.ExecContext(ctx, "DELETE FROM live_events WHERE world_id = ?", worldID); err != nil {
		return fmt.Errorf("deleting live events for world %s: %w", worldID, err)
	}
	return nil
}

func scanLiveEvent(scan func(...any) error) (*story.LiveEvent, error) {
	var (
		event     story.LiveEvent
		result    sql.NullString
		state     string
		eventType string
	)
	if err := scan(&event.ID, &event.WorldID, &event.Destination, &event.Origin, &event.PrevID, &event.NextID, &result, &state, &eventType, &event.Version, &event.Updated); err != nil {
		return nil, err
	}
	event.Type = story.LiveEventType(eventType)
	if result.Valid {
		var r story.LiveEventResult
		if err := json.Unmarshal([]byte(result.String), &r); err != nil {
			return nil, fmt.Errorf("unmarshaling result: %w", err)
		}
		event.Result = &r
	}
	if err := json.Unmarshal([]byte(state), &event.State); err != nil {
		return nil, fmt.Errorf("unmarshaling state: %w", err)
	}
	return &event, nil
}

func (c *Client) Bookmark(ctx context.Context, id string) (*story.Bookmark, error) {
	query := `SELECT id, world_id, title, live_event_id, version, updated FROM bookmarks WHERE id = ?`
	var b story.Bookmark
	err := c.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.WorldID, &b.Title, &b.LiveEventID, &b.Version, &b.Updated)
	if errors.Is(err, sql.ErrNoRows) {
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
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		world_id = excluded.world_id,
		title = excluded.title,
		live_event_id = excluded.live_event_id,
		version = excluded.version,
		updated = excluded.updated
	`
	if _, err := c.db.ExecContext(ctx, query, bookmark.ID, bookmark.WorldID, bookmark.Title, bookmark.LiveEventID, bookmark.Version, bookmark.Updated); err != nil {
		return fmt.Errorf("upserting bookmark: %w", err)
	}
	return nil
}

func (c *Client) DeleteBookmark(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM bookmarks WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting bookmark %s: %w", id, err)
	}
	return nil
}
