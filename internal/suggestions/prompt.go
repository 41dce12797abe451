package suggestions

import (
	"fmt"
	"strings"

	"github.com/draftline/draftline-backend/internal/clients/pinecone"
)

// SystemPersona is the fixed system instruction for every generation call.
const SystemPersona = "You are a professional LinkedIn content creator."

// BuildPrompt assembles the generation prompt for one item: the item's seed
// content, the user's stated goal, any retrieved guideline snippets, and the
// output-format instructions the parser expects.
func BuildPrompt(category, seed, goal string, snippets []pinecone.Snippet) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate a LinkedIn post for the category %q based on the following user input, goal, and guidelines:\n\n", category)
	fmt.Fprintf(&b, "User Input:\n%s\n\n", strings.TrimSpace(seed))
	fmt.Fprintf(&b, "User Goal:\n%s\n\n", strings.TrimSpace(goal))

	if len(snippets) > 0 {
		b.WriteString("Guidelines:\n")
		for i, s := range snippets {
			if i > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(strings.TrimSpace(s.Text))
		}
		b.WriteString("\n\n")
	}

	b.WriteString("The post should be engaging, professional, and follow LinkedIn best practices. " +
		"Incorporate the user's input and goal where appropriate.\n\n" +
		"Respond with a single JSON object of the form " +
		`{"content": string, "hashtags": [string], "callToAction": string}. ` +
		"Include 2-3 relevant hashtags without the leading '#' and a clear call to action. " +
		"Do not wrap the JSON in markdown fences or add any other text.")

	return b.String()
}

// buildPlannerPrompt asks for the topic list in a strict JSON array so the
// planner can verify the element count.
func buildPlannerPrompt(userInfo string, n int) string {
	return fmt.Sprintf(
		"Based on the following professional background, propose discussion topics for LinkedIn posts.\n\n"+
			"Background:\n%s\n\n"+
			"Respond with a JSON array of exactly %d short topic phrases (3-6 words each) and nothing else.",
		strings.TrimSpace(userInfo), n)
}
