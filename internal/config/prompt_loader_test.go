package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create prompt file %s: %v", name, err)
	}
	return path
}

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()
	systemFile := writePrompt(t, tempDir, "system.judge.md", "  Judge system prompt\n")
	userFile := writePrompt(t, tempDir, "user.judge.md", "Judge this: {{original}}")
	globalFile := writePrompt(t, tempDir, "system.keywords.md", "Global keyword prompt")

	config := &Config{
		AI: AIConfig{
			CustomPrompts: PromptConfig{
				SystemPrompts: PromptSet{KeywordExtractionFile: globalFile},
			},
			Judge: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: PromptSet{JudgeFile: systemFile},
					UserPrompts:   PromptSet{JudgeFile: userFile},
				},
			},
		},
	}

	require.NoError(t, config.loadPromptsFromFiles())

	judge := config.GetJudgeConfig()
	if got := judge.SystemPrompt(PromptJudge, "default"); got != "Judge system prompt" {
		t.Errorf("Expected trimmed system prompt, got '%s'", got)
	}
	if got := judge.UserPrompt(PromptJudge, "default"); got != "Judge this: {{original}}" {
		t.Errorf("Expected loaded user prompt, got '%s'", got)
	}

	keywords := config.GetKeywordsConfig()
	assert.Equal(t, "Global keyword prompt", keywords.SystemPrompt(PromptKeywordExtraction, "default"))
	assert.Equal(t, "default", keywords.UserPrompt(PromptKeywordExtraction, "default"))

	// file paths are preserved
	assert.Equal(t, systemFile, config.AI.Judge.CustomPrompts.SystemPrompts.JudgeFile)
}

func TestPromptResolutionOrder(t *testing.T) {
	config := &Config{
		AI: AIConfig{
			CustomPrompts: PromptConfig{
				SystemPrompts: PromptSet{ActionVerb: "global inline"},
			},
			Suggest: OperationAIConfig{
				CustomPrompts: PromptConfig{
					SystemPrompts: PromptSet{Quantification: "suggest inline"},
				},
				Loaded: LoadedPrompts{System: map[string]string{PromptQuantification: "from file"}},
			},
		},
	}

	suggest := config.GetSuggestConfig()

	tests := []struct {
		name     string
		prompt   string
		expected string
	}{
		{"file beats inline", PromptQuantification, "from file"},
		{"global inline inherited", PromptActionVerb, "global inline"},
		{"default when unset", PromptTransferableSkills, "built-in"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := suggest.SystemPrompt(tt.prompt, "built-in"); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestValidatePromptFiles(t *testing.T) {
	tempDir := t.TempDir()
	validFile := writePrompt(t, tempDir, "valid.md", "Valid content")

	config := &Config{
		AI: AIConfig{
			Keywords: OperationAIConfig{
				CustomPrompts: PromptConfig{SystemPrompts: PromptSet{KeywordExtractionFile: validFile}},
			},
		},
	}

	if err := config.validatePromptFiles(); err != nil {
		t.Errorf("Expected validation to pass for valid file, got error: %v", err)
	}

	config.AI.Keywords.CustomPrompts.SystemPrompts.KeywordExtractionFile = filepath.Join(tempDir, "nonexistent.md")
	err := config.validatePromptFiles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keywords system keywordExtraction prompt file not found")
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()
	testFile := writePrompt(t, tempDir, "test.md", "Test prompt content")
	emptyFile := writePrompt(t, tempDir, "empty.md", "   \n")

	content, err := loadPromptFromFile(testFile, "system", "judge")
	require.NoError(t, err)
	assert.Equal(t, "Test prompt content", content)

	_, err = loadPromptFromFile(emptyFile, "system", "judge")
	assert.Error(t, err, "Expected error for empty file")

	_, err = loadPromptFromFile(filepath.Join(tempDir, "nonexistent.md"), "system", "judge")
	assert.Error(t, err, "Expected error for non-existent file")
}

func TestOperationDefaults(t *testing.T) {
	judgeTemp := float32(0)
	config := &Config{
		AI: AIConfig{
			Provider:    "gemini",
			Model:       "gemini-2.0-flash",
			Timeout:     60 * time.Second,
			APIKey:      "global-key",
			MaxRetries:  3,
			Temperature: 0.7,
			Judge:       OperationAIConfig{Model: "gemini-judge", Temperature: &judgeTemp},
		},
	}

	judge := config.GetJudgeConfig()
	assert.Equal(t, "gemini-judge", judge.Model)
	assert.Equal(t, "global-key", judge.APIKey)
	assert.Equal(t, float32(0), *judge.Temperature)
	assert.Equal(t, 60*time.Second, *judge.Timeout)
	assert.Equal(t, 3, *judge.MaxRetries)

	// the stored operation config is left untouched
	assert.Nil(t, config.AI.Judge.Timeout)
}
