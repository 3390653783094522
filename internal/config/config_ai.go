package config

// Prompt names shared by config keys, loaded prompt maps and the ai package
const (
	PromptKeywordExtraction  = "keywordExtraction"
	PromptActionVerb         = "actionVerb"
	PromptQuantification     = "quantification"
	PromptTransferableSkills = "transferableSkills"
	PromptJudge              = "judge"
)

// PromptNames lists every prompt the application knows about
var PromptNames = []string{
	PromptKeywordExtraction,
	PromptActionVerb,
	PromptQuantification,
	PromptTransferableSkills,
	PromptJudge,
}

// PromptConfig holds custom prompt configurations
type PromptConfig struct {
	SystemPrompts PromptSet `mapstructure:"systemPrompts"`
	UserPrompts   PromptSet `mapstructure:"userPrompts"`
}

// PromptSet contains inline prompt overrides and the files they may be loaded from
type PromptSet struct {
	KeywordExtraction      string `mapstructure:"keywordExtraction"`
	KeywordExtractionFile  string `mapstructure:"keywordExtractionFile"`
	ActionVerb             string `mapstructure:"actionVerb"`
	ActionVerbFile         string `mapstructure:"actionVerbFile"`
	Quantification         string `mapstructure:"quantification"`
	QuantificationFile     string `mapstructure:"quantificationFile"`
	TransferableSkills     string `mapstructure:"transferableSkills"`
	TransferableSkillsFile string `mapstructure:"transferableSkillsFile"`
	Judge                  string `mapstructure:"judge"`
	JudgeFile              string `mapstructure:"judgeFile"`
}

// fields returns pointers to the inline text and file path for a prompt name
func (p *PromptSet) fields(name string) (text, file *string) {
	switch name {
	case PromptKeywordExtraction:
		return &p.KeywordExtraction, &p.KeywordExtractionFile
	case PromptActionVerb:
		return &p.ActionVerb, &p.ActionVerbFile
	case PromptQuantification:
		return &p.Quantification, &p.QuantificationFile
	case PromptTransferableSkills:
		return &p.TransferableSkills, &p.TransferableSkillsFile
	case PromptJudge:
		return &p.Judge, &p.JudgeFile
	}
	return nil, nil
}

// Get returns the inline text and file path configured for a prompt
func (p PromptSet) Get(name string) (text, file string) {
	t, f := p.fields(name)
	if t == nil {
		return "", ""
	}
	return *t, *f
}

// inherit fills empty entries from a fallback set
func (p *PromptSet) inherit(fallback PromptSet) {
	for _, name := range PromptNames {
		t, f := p.fields(name)
		ft, ff := fallback.fields(name)
		if *t == "" {
			*t = *ft
		}
		if *f == "" {
			*f = *ff
		}
	}
}

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}

	opCfg.CustomPrompts.SystemPrompts.inherit(c.AI.CustomPrompts.SystemPrompts)
	opCfg.CustomPrompts.UserPrompts.inherit(c.AI.CustomPrompts.UserPrompts)
	opCfg.Loaded = opCfg.Loaded.withFallback(c.AI.Loaded)
}

// GetKeywordsConfig returns the AI configuration for keyword extraction with fallback to global config
func (c *Config) GetKeywordsConfig() OperationAIConfig {
	config := c.AI.Keywords
	c.applyOperationDefaults(&config)
	return config
}

// GetSuggestConfig returns the AI configuration for suggestion generators with fallback to global config
func (c *Config) GetSuggestConfig() OperationAIConfig {
	config := c.AI.Suggest
	c.applyOperationDefaults(&config)
	return config
}

// GetJudgeConfig returns the AI configuration for the suggestion judge with fallback to global config
func (c *Config) GetJudgeConfig() OperationAIConfig {
	config := c.AI.Judge
	c.applyOperationDefaults(&config)
	return config
}

// SystemPrompt resolves a system prompt: loaded file, then inline config, then def
func (o OperationAIConfig) SystemPrompt(name, def string) string {
	return resolvePrompt(o.Loaded.System[name], o.CustomPrompts.SystemPrompts, name, def)
}

// UserPrompt resolves a user prompt template the same way as SystemPrompt
func (o OperationAIConfig) UserPrompt(name, def string) string {
	return resolvePrompt(o.Loaded.User[name], o.CustomPrompts.UserPrompts, name, def)
}

func resolvePrompt(fromFile string, set PromptSet, name, def string) string {
	if fromFile != "" {
		return fromFile
	}
	if text, _ := set.Get(name); text != "" {
		return text
	}
	return def
}
