package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"score": 8}`,
			want:  `{"score": 8}`,
		},
		{
			name:  "markdown fenced",
			input: "```json\n{\"score\": 8}\n```",
			want:  `{"score": 8}`,
		},
		{
			name:  "fenced without language",
			input: "```\n{\"score\": 8}\n```",
			want:  `{"score": 8}`,
		},
		{
			name:  "prose wrapped",
			input: "Here is my verdict: {\"score\": 8} as requested.",
			want:  `{"score": 8}`,
		},
		{
			name:  "nested object",
			input: `{"a": {"b": 1}, "c": 2}`,
			want:  `{"a": {"b": 1}, "c": 2}`,
		},
		{
			name:  "braces inside strings ignored",
			input: `{"feedback": "use {x} notation"}`,
			want:  `{"feedback": "use {x} notation"}`,
		},
		{
			name:    "no object",
			input:   "I cannot evaluate this.",
			wantErr: true,
		},
		{
			name:    "unbalanced",
			input:   `{"score": 8`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJudgeResponse(t *testing.T) {
	t.Run("valid verdict", func(t *testing.T) {
		resp, err := parseJudgeResponse(`{"score": 8.5, "feedback": "Sharp question.", "suggestedVariables": ["trust_gov"]}`)
		require.NoError(t, err)
		assert.InDelta(t, 8.5, resp.Score, 1e-9)
		assert.Equal(t, "Sharp question.", resp.Feedback)
		assert.Equal(t, []string{"trust_gov"}, resp.SuggestedVariables)
	})

	t.Run("score above range is clamped", func(t *testing.T) {
		resp, err := parseJudgeResponse(`{"score": 15, "feedback": "Over-enthusiastic judge."}`)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, resp.Score, 1e-9)
	})

	t.Run("missing score clamps to floor", func(t *testing.T) {
		resp, err := parseJudgeResponse(`{"feedback": "Forgot the number."}`)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, resp.Score, 1e-9)
	})

	t.Run("nil suggestions become empty slice", func(t *testing.T) {
		resp, err := parseJudgeResponse(`{"score": 6, "feedback": "Fine."}`)
		require.NoError(t, err)
		assert.NotNil(t, resp.SuggestedVariables)
		assert.Empty(t, resp.SuggestedVariables)
	})

	t.Run("empty feedback rejected", func(t *testing.T) {
		_, err := parseJudgeResponse(`{"score": 6, "feedback": "  "}`)
		assert.Error(t, err)
	})

	t.Run("malformed json rejected", func(t *testing.T) {
		_, err := parseJudgeResponse(`{"score": "eight", "feedback": "x"}`)
		assert.Error(t, err)
	})
}
