package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"fabula/internal/story"
	"fabula/internal/template"
	"fabula/internal/validate"
)

type PreviewChoiceInput struct {
	WorldID  string `json:"world_id" jsonschema:"world to play"`
	EventID  string `json:"event_id" jsonschema:"event id the player is on"`
	ChoiceID string `json:"choice_id" jsonschema:"choice to take"`
}

type PreviewPassthroughInput struct {
	WorldID string `json:"world_id" jsonschema:"world to play"`
	EventID string `json:"event_id" jsonschema:"event id the player is on"`
}

type PreviewInputInput struct {
	WorldID string `json:"world_id" jsonschema:"world to play"`
	EventID string `json:"event_id" jsonschema:"event id the player is on"`
	Value   string `json:"value" jsonschema:"typed value to submit"`
}

type RenderTemplateInput struct {
	WorldID   string `json:"world_id" jsonschema:"world whose variable state renders the text"`
	Text      string `json:"text" jsonschema:"text with {expression} spans"`
	Highlight bool   `json:"highlight,omitempty" jsonschema:"mark resolved spans instead of substituting plainly"`
}

type WorldInput struct {
	WorldID string `json:"world_id" jsonschema:"world id"`
}

type ListWorldsInput struct{}

type PlayHistoryInput struct {
	WorldID string `json:"world_id" jsonschema:"world id"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum steps to return, newest first"`
}

type ChoiceOutput struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type StepOutput struct {
	// Status is advanced, loopback, no_open_path, or invalid_input.
	Status      string         `json:"status"`
	Reason      string         `json:"reason,omitempty"`
	LiveEventID string         `json:"live_event_id,omitempty"`
	EventID     string         `json:"event_id,omitempty"`
	EventTitle  string         `json:"event_title,omitempty"`
	Content     string         `json:"content,omitempty"`
	Ending      bool           `json:"ending,omitempty"`
	Choices     []ChoiceOutput `json:"choices,omitempty"`
	WantsInput  bool           `json:"wants_input,omitempty"`
}

type RenderTemplateOutput struct {
	Text  string       `json:"text"`
	Spans []SpanOutput `json:"spans,omitempty"`
}

type SpanOutput struct {
	Raw   string `json:"raw"`
	Value string `json:"value"`
	Error string `json:"error,omitempty"`
}

type WorldOutput struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Designer string `json:"designer,omitempty"`
	Version  string `json:"version"`
}

type ListWorldsOutput struct {
	Worlds []WorldOutput `json:"worlds"`
}

type HistoryStepOutput struct {
	LiveEventID string `json:"live_event_id"`
	EventID     string `json:"event_id"`
	EventTitle  string `json:"event_title,omitempty"`
	Type        string `json:"type"`
	Result      string `json:"result,omitempty"`
	Updated     int64  `json:"updated"`
}

type PlayHistoryOutput struct {
	Steps []HistoryStepOutput `json:"steps"`
}

type IssueOutput struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Subject  string `json:"subject"`
}

type ValidateWorldOutput struct {
	Errors   int           `json:"errors"`
	Warnings int           `json:"warnings"`
	Issues   []IssueOutput `json:"issues"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "preview_choice",
		Description: "Take a choice on the current live event and report where play lands",
	}, s.handlePreviewChoice)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "preview_passthrough",
		Description: "Advance along the current event's automatic paths",
	}, s.handlePreviewPassthrough)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "preview_input",
		Description: "Submit a typed value on the current live event",
	}, s.handlePreviewInput)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "render_template",
		Description: "Render text with {expression} spans against a world's current state",
	}, s.handleRenderTemplate)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "resume_world",
		Description: "Resume a world at its bookmark, recovering or starting fresh as needed",
	}, s.handleResumeWorld)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "restart_world",
		Description: "Restart a world's playthrough from its starting event",
	}, s.handleRestartWorld)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_worlds",
		Description: "List the stored worlds",
	}, s.handleListWorlds)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "play_history",
		Description: "List the most recent steps of a world's playthrough",
	}, s.handlePlayHistory)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "validate_world",
		Description: "Report authoring integrity problems in a world",
	}, s.handleValidateWorld)
}

func (s *Server) handlePreviewChoice(ctx context.Context, req *sdk.CallToolRequest, input PreviewChoiceInput) (*sdk.CallToolResult, StepOutput, error) {
	if input.WorldID == "" || input.EventID == "" || input.ChoiceID == "" {
		return nil, StepOutput{}, fmt.Errorf("world_id, event_id and choice_id are required")
	}
	outcome, err := s.engine.ResolveChoice(ctx, input.WorldID, input.EventID, input.ChoiceID)
	if err != nil {
		return nil, StepOutput{}, err
	}
	out, err := s.stepOutput(ctx, outcome)
	return nil, out, err
}

func (s *Server) handlePreviewPassthrough(ctx context.Context, req *sdk.CallToolRequest, input PreviewPassthroughInput) (*sdk.CallToolResult, StepOutput, error) {
	if input.WorldID == "" || input.EventID == "" {
		return nil, StepOutput{}, fmt.Errorf("world_id and event_id are required")
	}
	outcome, err := s.engine.ResolvePassthrough(ctx, input.WorldID, input.EventID)
	if err != nil {
		return nil, StepOutput{}, err
	}
	out, err := s.stepOutput(ctx, outcome)
	return nil, out, err
}

func (s *Server) handlePreviewInput(ctx context.Context, req *sdk.CallToolRequest, input PreviewInputInput) (*sdk.CallToolResult, StepOutput, error) {
	if input.WorldID == "" || input.EventID == "" {
		return nil, StepOutput{}, fmt.Errorf("world_id and event_id are required")
	}
	outcome, err := s.engine.ResolveInput(ctx, input.WorldID, input.EventID, input.Value)
	if err != nil {
		return nil, StepOutput{}, err
	}
	out, err := s.stepOutput(ctx, outcome)
	return nil, out, err
}

func (s *Server) handleRenderTemplate(ctx context.Context, req *sdk.CallToolRequest, input RenderTemplateInput) (*sdk.CallToolResult, RenderTemplateOutput, error) {
	if input.WorldID == "" {
		return nil, RenderTemplateOutput{}, fmt.Errorf("world_id is required")
	}
	state, err := s.currentState(ctx, input.WorldID)
	if err != nil {
		return nil, RenderTemplateOutput{}, err
	}

	rendered := template.Render(input.Text, state, template.Options{Highlight: input.Highlight})
	out := RenderTemplateOutput{Text: rendered.Text}
	for _, span := range rendered.Spans {
		spanOut := SpanOutput{Raw: span.Raw, Value: span.Value}
		if span.Err != nil {
			spanOut.Error = span.Err.Error()
		}
		out.Spans = append(out.Spans, spanOut)
	}
	return nil, out, nil
}

func (s *Server) handleResumeWorld(ctx context.Context, req *sdk.CallToolRequest, input WorldInput) (*sdk.CallToolResult, StepOutput, error) {
	if input.WorldID == "" {
		return nil, StepOutput{}, fmt.Errorf("world_id is required")
	}
	liveEvent, err := s.engine.ResumeOrInitialize(ctx, input.WorldID)
	if err != nil {
		return nil, StepOutput{}, err
	}
	out, err := s.liveEventOutput(ctx, "advanced", liveEvent)
	return nil, out, err
}

func (s *Server) handleRestartWorld(ctx context.Context, req *sdk.CallToolRequest, input WorldInput) (*sdk.CallToolResult, StepOutput, error) {
	if input.WorldID == "" {
		return nil, StepOutput{}, fmt.Errorf("world_id is required")
	}
	outcome, err := s.engine.Restart(ctx, input.WorldID)
	if err != nil {
		return nil, StepOutput{}, err
	}
	out, err := s.stepOutput(ctx, outcome)
	return nil, out, err
}

func (s *Server) handleListWorlds(ctx context.Context, req *sdk.CallToolRequest, input ListWorldsInput) (*sdk.CallToolResult, ListWorldsOutput, error) {
	worlds, err := s.db.Worlds(ctx)
	if err != nil {
		return nil, ListWorldsOutput{}, err
	}
	out := ListWorldsOutput{Worlds: make([]WorldOutput, 0, len(worlds))}
	for _, w := range worlds {
		out.Worlds = append(out.Worlds, WorldOutput{
			ID:       w.ID,
			Title:    w.Title,
			Designer: w.Designer,
			Version:  w.Version,
		})
	}
	return nil, out, nil
}

func (s *Server) handlePlayHistory(ctx context.Context, req *sdk.CallToolRequest, input PlayHistoryInput) (*sdk.CallToolResult, PlayHistoryOutput, error) {
	if input.WorldID == "" {
		return nil, PlayHistoryOutput{}, fmt.Errorf("world_id is required")
	}
	world, err := s.db.World(ctx, input.WorldID)
	if err != nil {
		return nil, PlayHistoryOutput{}, err
	}
	if world == nil {
		return nil, PlayHistoryOutput{}, fmt.Errorf("world %s not found", input.WorldID)
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	liveEvents, err := s.db.RecentLiveEvents(ctx, input.WorldID, world.Version, limit)
	if err != nil {
		return nil, PlayHistoryOutput{}, err
	}
	out := PlayHistoryOutput{Steps: make([]HistoryStepOutput, 0, len(liveEvents))}
	for _, le := range liveEvents {
		step := HistoryStepOutput{
			LiveEventID: le.ID,
			EventID:     le.Destination,
			Type:        string(le.Type),
			Updated:     le.Updated,
		}
		if le.Result != nil {
			step.Result = le.Result.Value
		}
		if event, err := s.db.Event(ctx, le.Destination); err == nil && event != nil {
			step.EventTitle = event.Title
		}
		out.Steps = append(out.Steps, step)
	}
	return nil, out, nil
}

func (s *Server) handleValidateWorld(ctx context.Context, req *sdk.CallToolRequest, input WorldInput) (*sdk.CallToolResult, ValidateWorldOutput, error) {
	if input.WorldID == "" {
		return nil, ValidateWorldOutput{}, fmt.Errorf("world_id is required")
	}
	report, err := validate.Run(ctx, s.db, input.WorldID)
	if err != nil {
		return nil, ValidateWorldOutput{}, err
	}

	out := ValidateWorldOutput{Issues: make([]IssueOutput, 0, len(report.Issues))}
	for _, issue := range report.Issues {
		out.Issues = append(out.Issues, IssueOutput{
			Severity: string(issue.Severity),
			Code:     issue.Code,
			Message:  issue.Message,
			Subject:  issue.Subject,
		})
		if issue.Severity == validate.SeverityError {
			out.Errors++
		} else {
			out.Warnings++
		}
	}
	return nil, out, nil
}

func (s *Server) stepOutput(ctx context.Context, outcome story.Outcome) (StepOutput, error) {
	switch o := outcome.(type) {
	case story.NextStep:
		status := "advanced"
		if o.Loopback {
			status = "loopback"
		}
		return s.filledStep(ctx, status, &o.LiveEvent, &o.Event)
	case story.NoOpenPath:
		return StepOutput{Status: "no_open_path", EventID: o.OriginID}, nil
	case story.InvalidInput:
		return StepOutput{Status: "invalid_input", Reason: o.Reason}, nil
	default:
		return StepOutput{}, fmt.Errorf("unexpected outcome %T", outcome)
	}
}

func (s *Server) liveEventOutput(ctx context.Context, status string, liveEvent *story.LiveEvent) (StepOutput, error) {
	event, err := s.db.Event(ctx, liveEvent.Destination)
	if err != nil {
		return StepOutput{}, err
	}
	if event == nil {
		return StepOutput{}, fmt.Errorf("destination event %s not found", liveEvent.Destination)
	}
	return s.filledStep(ctx, status, liveEvent, event)
}

func (s *Server) filledStep(ctx context.Context, status string, liveEvent *story.LiveEvent, event *story.Event) (StepOutput, error) {
	rendered := template.Render(event.Content, liveEvent.State, template.Options{})
	out := StepOutput{
		Status:      status,
		LiveEventID: liveEvent.ID,
		EventID:     event.ID,
		EventTitle:  event.Title,
		Content:     rendered.Text,
		Ending:      event.Ending,
		WantsInput:  event.Type == story.EventInput,
	}
	for _, choiceID := range event.ChoiceIDs {
		choice, err := s.db.Choice(ctx, choiceID)
		if err != nil {
			return StepOutput{}, err
		}
		if choice == nil {
			continue
		}
		out.Choices = append(out.Choices, ChoiceOutput{ID: choice.ID, Title: choice.Title})
	}
	return out, nil
}

// currentState is the bookmarked live event's state, or the initial values
// when the world has not been played.
func (s *Server) currentState(ctx context.Context, worldID string) (story.VariableState, error) {
	bookmark, err := s.db.Bookmark(ctx, story.AutoBookmarkID(worldID))
	if err != nil {
		return nil, err
	}
	if bookmark != nil {
		liveEvent, err := s.db.LiveEvent(ctx, bookmark.LiveEventID)
		if err != nil {
			return nil, err
		}
		if liveEvent != nil {
			return liveEvent.State, nil
		}
	}

	variables, err := s.db.Variables(ctx, worldID)
	if err != nil {
		return nil, err
	}
	state := make(story.VariableState, len(variables))
	for _, v := range variables {
		state[v.ID] = story.VariableSnapshot{Title: v.Title, Type: v.Type, Value: v.InitialValue}
	}
	return state, nil
}
