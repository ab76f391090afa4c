package prompt

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestComposeIncludesExamplesOnce(t *testing.T) {
	c := NewComposer(NewPromptBuilder(), zap.NewNop())

	out := c.Compose("Alex", "Nickelback, Crocs, Marvel movies", "", []string{"example A", "example B"}, false)

	for _, want := range []string{"USER NAME: Alex", "USER TASTE/HOBBIES: Nickelback, Crocs, Marvel movies", "\n- example A", "\n- example B"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected prompt to contain %q\n%s", want, out)
		}
	}
	for _, ex := range []string{"example A", "example B"} {
		if n := strings.Count(out, ex); n != 1 {
			t.Fatalf("expected %q exactly once, got %d", ex, n)
		}
	}
	if strings.Contains(out, "No examples found.") {
		t.Fatalf("placeholder must not appear when examples exist")
	}
	if strings.Contains(out, "VISUAL LOOKALIKE") {
		t.Fatalf("visual clause must be absent without visual context")
	}
}

func TestComposePlaceholderWithoutExamples(t *testing.T) {
	c := NewComposer(nil, zap.NewNop())

	out := c.Compose("Sam", "jazz", "", nil, false)
	if !strings.Contains(out, "EXAMPLES:\nNo examples found.\n--- END STYLE GUIDE ---") {
		t.Fatalf("expected placeholder block, got:\n%s", out)
	}
	if !strings.Contains(out, `"visual_roast": "Leave empty, no image was provided."`) {
		t.Fatalf("expected empty visual instruction without image")
	}
}

func TestComposeVisualContext(t *testing.T) {
	c := NewComposer(nil, zap.NewNop())

	out := c.Compose("Sam", "jazz", "You look like a\nthumb with a\tgoatee.", []string{"x"}, true)
	if !strings.Contains(out, "VISUAL LOOKALIKE ROAST: The user looks like someone who deserves this: You look like a thumb with a goatee.") {
		t.Fatalf("expected flattened visual clause, got:\n%s", out)
	}
	if !strings.Contains(out, `"visual_roast": "Analyze the attached image."`) {
		t.Fatalf("expected image instruction")
	}
}

func TestComposeEscapesNameInsideJSONShape(t *testing.T) {
	c := NewComposer(nil, zap.NewNop())

	out := c.Compose(`Bob "The Knife" <3`, "metal", "", nil, false)
	if !strings.Contains(out, `USER NAME: Bob "The Knife" <3`) {
		t.Fatalf("expected verbatim name in user section")
	}
	if !strings.Contains(out, `"display_name": "Bob \"The Knife\" <3"`) {
		t.Fatalf("expected escaped name in output shape, got:\n%s", out)
	}
}

func TestComposeFlattensMultilineExamples(t *testing.T) {
	c := NewComposer(nil, zap.NewNop())

	out := c.Compose("Sam", "jazz", "", []string{"line one\nline two", "   "}, false)
	if !strings.Contains(out, "\n- line one line two\n") {
		t.Fatalf("expected flattened example, got:\n%s", out)
	}
	if strings.Count(out, "\n- ") != 1 {
		t.Fatalf("blank examples must be dropped")
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	c := NewComposer(nil, zap.NewNop())
	a := c.Compose("Sam", "jazz", "v", []string{"a", "b"}, true)
	b := c.Compose("Sam", "jazz", "v", []string{"a", "b"}, true)
	if a != b {
		t.Fatalf("expected identical prompts for identical input")
	}
}

func TestFallbackMatchesTemplate(t *testing.T) {
	builder := NewPromptBuilder()
	cases := []RoastPromptData{
		{Name: "Alex", Taste: "Nickelback", Examples: []string{"example A", "example B"}},
		{Name: `Q "uote"`, Taste: "jazz", VisualContext: "thumb", HasImage: true},
		{Name: "Empty", Taste: ""},
	}

	for _, data := range cases {
		rendered, err := builder.Render(TemplateRoast, data)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if fallback := FallbackRoastPrompt(data); fallback != rendered {
			t.Fatalf("fallback prompt drifted from template\n--- template ---\n%s\n--- fallback ---\n%s", rendered, fallback)
		}
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, err := NewPromptBuilder().Render("missing.yaml", nil); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}

func TestComposeKeepsLongExamplesWhole(t *testing.T) {
	c := NewComposer(nil, zap.NewNop())

	long := strings.Repeat("roast ", 120) + "end"
	out := c.Compose("Sam", "jazz", "", []string{long}, false)
	if !strings.Contains(out, "\n- "+long+"\n") {
		t.Fatalf("expected the full example in the prompt")
	}
}
