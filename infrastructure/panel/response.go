package panel

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/verdictlab/crisisquiz/internal/domain"
)

// judgeResponse is the wire shape every judge is instructed to return.
type judgeResponse struct {
	Score              float64  `json:"score"`
	Feedback           string   `json:"feedback"`
	SuggestedVariables []string `json:"suggestedVariables"`
}

// parseJudgeResponse extracts and decodes a judge's JSON verdict from
// a raw model completion. Scores outside the valid range are clamped
// rather than rejected; a missing or empty feedback string is an error
// because the fallback message is more useful than a blank verdict.
func parseJudgeResponse(raw string) (judgeResponse, error) {
	payload, err := extractJSON(raw)
	if err != nil {
		return judgeResponse{}, err
	}

	var resp judgeResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return judgeResponse{}, fmt.Errorf("decoding judge response: %w", err)
	}
	if strings.TrimSpace(resp.Feedback) == "" {
		return judgeResponse{}, fmt.Errorf("judge response has empty feedback")
	}

	resp.Score = domain.ClampScore(resp.Score)
	if resp.SuggestedVariables == nil {
		resp.SuggestedVariables = []string{}
	}
	return resp, nil
}

// extractJSON locates the first balanced JSON object in text, tolerating
// markdown code fences and surrounding prose. Models occasionally wrap
// the verdict despite the strict-format instruction.
func extractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1], nil
				}
			}
		}
	}
	return "", fmt.Errorf("unbalanced JSON object in response")
}
