package template

import (
	"errors"
	"testing"

	"fabula/internal/story"
)

func testState() story.VariableState {
	return story.VariableState{
		"v-name":  {Title: "name", Type: story.VariableString, Value: "Ann"},
		"v-score": {Title: "score", Type: story.VariableNumber, Value: "12"},
		"v-alive": {Title: "alive", Type: story.VariableBoolean, Value: "true"},
		"v-dead":  {Title: "dead", Type: story.VariableBoolean, Value: "false"},
		"v-empty": {Title: "nickname", Type: story.VariableString, Value: ""},
	}
}

func TestRenderIdentifier(t *testing.T) {
	t.Run("substitutes variable value", func(t *testing.T) {
		got := Render("Hello {name}", testState(), Options{})
		if got.Text != "Hello Ann" {
			t.Fatalf("got %q", got.Text)
		}
		if len(got.Spans) != 1 || got.Spans[0].Err != nil {
			t.Fatalf("unexpected spans: %#v", got.Spans)
		}
	})

	t.Run("unknown variable renders error span", func(t *testing.T) {
		got := Render("Hello {stranger}", testState(), Options{})
		if got.Text != "Hello ERROR" {
			t.Fatalf("got %q", got.Text)
		}
		if len(got.Spans) != 1 || !errors.Is(got.Spans[0].Err, ErrUnknownVariable) {
			t.Fatalf("expected ErrUnknownVariable, got %#v", got.Spans)
		}
	})

	t.Run("boolean variable renders raw value", func(t *testing.T) {
		got := Render("{alive}", testState(), Options{})
		if got.Text != "true" {
			t.Fatalf("got %q", got.Text)
		}
	})
}

func TestRenderMethodCall(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"upper", "{name.upper()}", "ANN"},
		{"lower", "{name.lower()}", "ann"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Render(tc.text, testState(), Options{})
			if got.Text != tc.want {
				t.Fatalf("got %q, want %q", got.Text, tc.want)
			}
		})
	}

	t.Run("unknown method is an error span", func(t *testing.T) {
		got := Render("{name.reverse()}", testState(), Options{})
		if got.Text != ErrorText {
			t.Fatalf("got %q", got.Text)
		}
		if !errors.Is(got.Spans[0].Err, ErrUnknownMethod) {
			t.Fatalf("expected ErrUnknownMethod, got %v", got.Spans[0].Err)
		}
	})
}

func TestRenderNegation(t *testing.T) {
	t.Run("negates boolean", func(t *testing.T) {
		got := Render("{!alive}", testState(), Options{})
		if got.Text != "false" {
			t.Fatalf("got %q", got.Text)
		}
		got = Render("{!dead}", testState(), Options{})
		if got.Text != "true" {
			t.Fatalf("got %q", got.Text)
		}
	})

	t.Run("rejects non-boolean", func(t *testing.T) {
		got := Render("{!name}", testState(), Options{})
		if !errors.Is(got.Spans[0].Err, ErrTypeMismatch) {
			t.Fatalf("expected ErrTypeMismatch, got %v", got.Spans[0].Err)
		}
	})
}

func TestRenderConditional(t *testing.T) {
	t.Run("numeric comparison selects consequent", func(t *testing.T) {
		got := Render(`{score >= 10 ? "Pass" : "Fail"}`, testState(), Options{})
		if got.Text != "Pass" {
			t.Fatalf("got %q", got.Text)
		}
	})

	t.Run("numeric comparison selects alternate", func(t *testing.T) {
		state := testState()
		state["v-score"] = story.VariableSnapshot{Title: "score", Type: story.VariableNumber, Value: "5"}
		got := Render(`{score >= 10 ? "Pass" : "Fail"}`, state, Options{})
		if got.Text != "Fail" {
			t.Fatalf("got %q", got.Text)
		}
	})

	t.Run("bare identifier truthiness", func(t *testing.T) {
		got := Render(`{alive ? "up" : "down"}`, testState(), Options{})
		if got.Text != "up" {
			t.Fatalf("got %q", got.Text)
		}
		got = Render(`{nickname ? "named" : "nameless"}`, testState(), Options{})
		if got.Text != "nameless" {
			t.Fatalf("got %q", got.Text)
		}
	})

	t.Run("boolean literal compares semantically", func(t *testing.T) {
		got := Render(`{alive == true ? "yes" : "no"}`, testState(), Options{})
		if got.Text != "yes" {
			t.Fatalf("got %q", got.Text)
		}
		got = Render(`{dead != true ? "yes" : "no"}`, testState(), Options{})
		if got.Text != "yes" {
			t.Fatalf("got %q", got.Text)
		}
	})

	t.Run("string equality is case sensitive", func(t *testing.T) {
		got := Render(`{name == "ann" ? "match" : "miss"}`, testState(), Options{})
		if got.Text != "miss" {
			t.Fatalf("got %q", got.Text)
		}
		got = Render(`{name == "Ann" ? "match" : "miss"}`, testState(), Options{})
		if got.Text != "match" {
			t.Fatalf("got %q", got.Text)
		}
	})

	t.Run("ordering requires numeric operands", func(t *testing.T) {
		got := Render(`{name > 3 ? "a" : "b"}`, testState(), Options{})
		if !errors.Is(got.Spans[0].Err, ErrTypeMismatch) {
			t.Fatalf("expected ErrTypeMismatch, got %v", got.Spans[0].Err)
		}
	})

	t.Run("branches may be identifiers", func(t *testing.T) {
		got := Render(`{score > 10 ? name : "nobody"}`, testState(), Options{})
		if got.Text != "Ann" {
			t.Fatalf("got %q", got.Text)
		}
	})
}

func TestRenderRejectsOutsideGrammar(t *testing.T) {
	cases := []string{
		"{1 + 2}",
		"{name.upper().lower()}",
		"{score > 10}",
		"{42}",
		`{"hello"}`,
		"{name name}",
		"{score >= ten ? a : b ? c : d}",
		"{name = 'Ann' ? 'a' : 'b'}",
	}
	for _, text := range cases {
		t.Run(text, func(t *testing.T) {
			got := Render(text, testState(), Options{})
			if len(got.Spans) != 1 {
				t.Fatalf("expected one span, got %#v", got.Spans)
			}
			if got.Spans[0].Err == nil {
				t.Fatalf("expected expression error for %q", text)
			}
			if got.Text != ErrorText {
				t.Fatalf("got %q", got.Text)
			}
		})
	}
}

func TestRenderText(t *testing.T) {
	t.Run("multiple spans replaced positionally", func(t *testing.T) {
		got := Render("{name} scored {score} points", testState(), Options{})
		if got.Text != "Ann scored 12 points" {
			t.Fatalf("got %q", got.Text)
		}
		if len(got.Spans) != 2 {
			t.Fatalf("expected two spans, got %d", len(got.Spans))
		}
	})

	t.Run("collapses whitespace runs", func(t *testing.T) {
		got := Render("Hello   {name}  \t welcome", testState(), Options{})
		if got.Text != "Hello Ann welcome" {
			t.Fatalf("got %q", got.Text)
		}
	})

	t.Run("preserves newlines", func(t *testing.T) {
		got := Render("Hello {name}\nGoodbye", testState(), Options{})
		if got.Text != "Hello Ann\nGoodbye" {
			t.Fatalf("got %q", got.Text)
		}
	})

	t.Run("unclosed brace passes through", func(t *testing.T) {
		got := Render("curly { alone", testState(), Options{})
		if got.Text != "curly { alone" {
			t.Fatalf("got %q", got.Text)
		}
		if len(got.Spans) != 0 {
			t.Fatalf("expected no spans, got %#v", got.Spans)
		}
	})

	t.Run("quoted close brace stays inside span", func(t *testing.T) {
		got := Render(`{name == "}" ? "brace" : "other"}`, testState(), Options{})
		if got.Text != "other" {
			t.Fatalf("got %q", got.Text)
		}
	})
}

func TestRenderHighlight(t *testing.T) {
	t.Run("wraps spans in markers", func(t *testing.T) {
		got := Render("Hello {name}", testState(), Options{Highlight: true})
		want := "Hello " + HighlightStart + "Ann" + HighlightEnd
		if got.Text != want {
			t.Fatalf("got %q, want %q", got.Text, want)
		}
	})

	t.Run("error spans keep markers", func(t *testing.T) {
		got := Render("{missing}", testState(), Options{Highlight: true})
		want := HighlightStart + ErrorText + HighlightEnd
		if got.Text != want {
			t.Fatalf("got %q, want %q", got.Text, want)
		}
	})
}
