package prompt

import (
	"github.com/kapu/roast-rag-go/internal/util"
	"go.uber.org/zap"
)

// RoastPromptData holds variables for the roast prompt template.
type RoastPromptData struct {
	Name          string
	Taste         string
	VisualContext string
	Examples      []string
	HasImage      bool
}

// Composer renders roast prompts. Output depends only on its input.
type Composer struct {
	builder *PromptBuilder
	logger  *zap.Logger
}

func NewComposer(builder *PromptBuilder, logger *zap.Logger) *Composer {
	if builder == nil {
		builder = NewPromptBuilder()
	}
	return &Composer{builder: builder, logger: logger}
}

// Compose builds the single instruction block sent to the model. Examples are
// flattened to one line each so the bullet list stays intact; name and taste are
// passed through verbatim.
func (c *Composer) Compose(name, taste, visualContext string, examples []string, hasImage bool) string {
	data := RoastPromptData{
		Name:          name,
		Taste:         taste,
		VisualContext: util.CollapseWhitespace(visualContext),
		Examples:      normalizeExamples(examples),
		HasImage:      hasImage,
	}

	rendered, err := c.builder.Render(TemplateRoast, data)
	if err != nil {
		c.logger.Warn("Roast prompt template failed, using inline prompt", zap.Error(err))
		return FallbackRoastPrompt(data)
	}
	return rendered
}

func normalizeExamples(examples []string) []string {
	out := make([]string, 0, len(examples))
	for _, ex := range examples {
		line := util.CollapseWhitespace(ex)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
