package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// promptScope is one place prompts can be configured: globally or per operation
type promptScope struct {
	name    string
	prompts *PromptConfig
	target  *LoadedPrompts
}

func (c *Config) promptScopes() []promptScope {
	return []promptScope{
		{"global", &c.AI.CustomPrompts, &c.AI.Loaded},
		{"keywords", &c.AI.Keywords.CustomPrompts, &c.AI.Keywords.Loaded},
		{"suggest", &c.AI.Suggest.CustomPrompts, &c.AI.Suggest.Loaded},
		{"judge", &c.AI.Judge.CustomPrompts, &c.AI.Judge.Loaded},
	}
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	for _, scope := range c.promptScopes() {
		system, err := loadPromptSet(scope.prompts.SystemPrompts, "system", scope.name)
		if err != nil {
			return fmt.Errorf("failed to load %s system prompts: %w", scope.name, err)
		}
		user, err := loadPromptSet(scope.prompts.UserPrompts, "user", scope.name)
		if err != nil {
			return fmt.Errorf("failed to load %s user prompts: %w", scope.name, err)
		}
		*scope.target = LoadedPrompts{System: system, User: user}
	}

	c.logPromptLoadingSummary()
	return nil
}

func loadPromptSet(set PromptSet, promptType, scope string) (map[string]string, error) {
	loaded := make(map[string]string)
	for _, name := range PromptNames {
		_, file := set.Get(name)
		if file == "" {
			continue
		}
		content, err := loadPromptFromFile(file, promptType, scope+"."+name)
		if err != nil {
			return nil, err
		}
		loaded[name] = content
	}
	return loaded, nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist and are readable before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, promptType, operation string) {
		if filePath == "" {
			return
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, operation, filePath))
			return
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, operation, absPath))
		}
	}

	for _, scope := range c.promptScopes() {
		for _, name := range PromptNames {
			_, systemFile := scope.prompts.SystemPrompts.Get(name)
			_, userFile := scope.prompts.UserPrompts.Get(name)
			validateFile(systemFile, scope.name+" system", name)
			validateFile(userFile, scope.name+" user", name)
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

// logPromptLoadingSummary logs a summary of loaded prompts
func (c *Config) logPromptLoadingSummary() {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	promptCount := 0
	for _, scope := range c.promptScopes() {
		for _, kind := range []struct {
			label  string
			loaded map[string]string
		}{{"system", scope.target.System}, {"user", scope.target.User}} {
			names := make([]string, 0, len(kind.loaded))
			for name := range kind.loaded {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				log.Printf("[CONFIG] %s %s %s prompt: loaded from file", scope.name, kind.label, name)
			}
			promptCount += len(names)
		}
	}

	if promptCount == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", promptCount)
	}
	log.Println("[CONFIG] ==========================================")
}
