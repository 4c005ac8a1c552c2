package llm

import (
	"fmt"
	"strings"
)

// buildScorePrompt renders the lead-scoring prompt. The response contract
// (field names and ranges) must stay in sync with ParseScoreResponse.
func buildScorePrompt(req ScoreRequest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Analyze this community post for sales/marketing intent related to %q.\n\n", req.Keyword)
	fmt.Fprintf(&sb, "Post Title: %s\n", req.Post.Title)
	fmt.Fprintf(&sb, "Post Body: %s\n", req.Post.Body)
	fmt.Fprintf(&sb, "Community: %s\n\n", req.Post.Community)

	sb.WriteString("Return JSON ONLY in this exact format:\n{\n")
	sb.WriteString("  \"intent_score\": <number 0-100>,\n")
	sb.WriteString("  \"pain_point\": \"<short summary of the user's problem>\",\n")
	sb.WriteString("  \"suggested_reply\": \"<the comment text to post>\"")

	if req.FuryEnabled {
		sb.WriteString(",\n")
		sb.WriteString("  \"fury_score\": <number 0-100>,\n")
		sb.WriteString("  \"pain_summary\": \"<brief explanation of what's causing frustration>\",\n")
		sb.WriteString("  \"primary_trigger\": \"<main frustration trigger>\",\n")
		sb.WriteString("  \"sample_quote\": \"<direct quote from the post showing frustration>\"")
	}

	sb.WriteString("\n}\n\n")

	sb.WriteString("INTENT SCORE (0-100) based on:\n")
	sb.WriteString("- How clearly they express a problem or need\n")
	sb.WriteString("- How likely they are to be receptive to a solution\n")
	fmt.Fprintf(&sb, "- How relevant their problem is to %s\n", req.Keyword)
	sb.WriteString("Be strict - only score above 75 if there's clear buying intent or a specific problem to solve.\n")

	if req.FuryEnabled {
		sb.WriteString("\nFURY SCORE (0-100) - frustration level:\n")
		sb.WriteString("- 0-30: Mild curiosity, no real frustration\n")
		sb.WriteString("- 30-60: Noticeable dissatisfaction, some pain points\n")
		sb.WriteString("- 60-80: High frustration, clear complaints about current solution\n")
		sb.WriteString("- 80-100: Extreme anger, urgency, desperation\n")
		sb.WriteString("The fury_score should be HIGH when users are ready to switch NOW, not just browsing.\n")
	}

	sb.WriteString("\nThe suggested_reply must be helpful first: sympathize with the pain point, ")
	sb.WriteString("give genuinely actionable advice, and never pitch products or links publicly.\n")

	if req.OfferContext != "" {
		fmt.Fprintf(&sb, "\nYour Business Context (for reference when crafting the reply):\n%s\n", req.OfferContext)
	}

	if req.NewsContext != "" {
		fmt.Fprintf(&sb, "\nRECENT TRENDING NEWS about %q (reference these events if relevant to the user's problem):\n%s\n", req.Keyword, req.NewsContext)
	}

	return sb.String()
}
