package ai

import (
	"testing"

	"resumescan/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

var verdictSchema = MustResponseSchema(&genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"score": {Type: genai.TypeInteger},
		"tags":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"score"},
})

type verdict struct {
	Score int      `json:"score"`
	Tags  []string `json:"tags"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      verdict
		expectErr bool
	}{
		{name: "plain", raw: `{"score": 80, "tags": ["a"]}`, want: verdict{Score: 80, Tags: []string{"a"}}},
		{name: "fenced", raw: "```json\n{\"score\": 12}\n```", want: verdict{Score: 12}},
		{name: "missing required", raw: `{"tags": []}`, expectErr: true},
		{name: "wrong type", raw: `{"score": "high"}`, expectErr: true},
		{name: "not json", raw: `Sure! Here you go`, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeJSON[verdict](tt.raw, verdictSchema)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidationErrorListsFields(t *testing.T) {
	err := verdictSchema.Validate(`{"score": "x"}`)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "score", ve.Errors[0].Field)
}

func TestRenderPrompt(t *testing.T) {
	got := RenderPrompt("Evaluate {{section}}: {{original}} -> {{suggested}} ({{unknown}})", map[string]string{
		"section":   "experience",
		"original":  "Did {{section}} work",
		"suggested": "Led work",
	})
	// substituted values are not expanded again
	assert.Equal(t, "Evaluate experience: Did {{section}} work -> Led work ({{unknown}})", got)
}

func TestBuildPromptUsesDefaults(t *testing.T) {
	p := BuildPrompt(config.OperationAIConfig{}, "judge_suggestion", config.PromptJudge, map[string]string{
		"section":    "skills",
		"original":   "JS",
		"suggested":  "JavaScript (ES2022)",
		"jd_excerpt": "We use JavaScript",
	})
	assert.Equal(t, "judge_suggestion", p.Operation)
	assert.Equal(t, DefaultSystemPrompts[config.PromptJudge], p.System)
	assert.Contains(t, p.User, "JavaScript (ES2022)")
	assert.NotContains(t, p.User, "{{")

	for _, name := range config.PromptNames {
		assert.NotEmpty(t, DefaultSystemPrompts[name], name)
		assert.NotEmpty(t, DefaultUserPrompts[name], name)
	}
}
