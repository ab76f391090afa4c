package prompt

import (
	"fmt"
	"strings"
)

// FallbackRoastPrompt renders the roast prompt without the template engine.
// It must stay in sync with templates/roast.yaml.
func FallbackRoastPrompt(data RoastPromptData) string {
	builder := &strings.Builder{}
	builder.WriteString("You are a ruthless, elitist pop-culture critic. Roast the user based on their data.\n\n")
	builder.WriteString(fmt.Sprintf("USER NAME: %s\n", data.Name))
	builder.WriteString(fmt.Sprintf("USER TASTE/HOBBIES: %s", data.Taste))
	if data.VisualContext != "" {
		builder.WriteString(fmt.Sprintf("\nVISUAL LOOKALIKE ROAST: The user looks like someone who deserves this: %s", data.VisualContext))
	}

	builder.WriteString(`

--- STYLE GUIDE (TONE & DELIVERY) ---
Here are actual savage comments from the internet to guide your tone.
DO NOT copy these exactly. Study their sentence structure, brevity, and cruelty.

EXAMPLES:`)
	if len(data.Examples) > 0 {
		for _, ex := range data.Examples {
			builder.WriteString("\n- " + ex)
		}
	} else {
		builder.WriteString("\nNo examples found.")
	}

	visualInstruction := "Leave empty, no image was provided."
	if data.HasImage {
		visualInstruction = "Analyze the attached image."
	}

	builder.WriteString(fmt.Sprintf(`
--- END STYLE GUIDE ---

OUTPUT FORMAT: Return ONLY valid JSON matching this structure:
{
  "user_profile": { "display_name": "%s", "archetype": "An insulting 2-5 word title" },
  "roast": {
    "headline": "A brutal, short summary sentence.",
    "music_roast": "Roast their specific music taste or lack thereof.",
    "movie_roast": "Roast their movie choices.",
    "visual_roast": "%s",
    "overall_verdict": "Final judgment."
  },
  "stats": { "basic_score": (integer 0-100), "red_flag_score": (integer 0-100) },
  "verdict": { "verdict_1": "Word", "verdict_2": "Word", "verdict_3": "Word", "verdict_4": "Word" }
}
Every field is required. Do not wrap the JSON in Markdown.
`, jsonEscape(data.Name), visualInstruction))

	return builder.String()
}
