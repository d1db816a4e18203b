package domain

type LLMSettings struct {
	ID            int64  `json:"id"`
	ModelProvider string `json:"model_provider"`
	ModelName     string `json:"model_name"`
	Temperature   string `json:"temperature"`
	MaxTokens     int    `json:"max_tokens"`
	APIBaseURL    string `json:"api_base_url,omitempty"`
	IsActive      bool   `json:"is_active"`
}

type LLMSettingsUpdate struct {
	ModelProvider *string `json:"model_provider,omitempty"`
	ModelName     *string `json:"model_name,omitempty"`
	Temperature   *string `json:"temperature,omitempty"`
	MaxTokens     *int    `json:"max_tokens,omitempty"`
	APIBaseURL    *string `json:"api_base_url,omitempty"`
}

type PromptTemplate struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	SystemPrompt       string `json:"system_prompt"`
	UserPromptTemplate string `json:"user_prompt_template,omitempty"`
	Version            int    `json:"version"`
	IsActive           bool   `json:"is_active"`
}

type PromptTemplateCreate struct {
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	SystemPrompt       string `json:"system_prompt"`
	UserPromptTemplate string `json:"user_prompt_template,omitempty"`
}

type PromptTemplateUpdate struct {
	Description        *string `json:"description,omitempty"`
	SystemPrompt       *string `json:"system_prompt,omitempty"`
	UserPromptTemplate *string `json:"user_prompt_template,omitempty"`
}

type PolicyRule struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	RuleType    string         `json:"rule_type"`
	Config      map[string]any `json:"config"`
	Severity    string         `json:"severity"`
	IsActive    bool           `json:"is_active"`
}

type PolicyRuleCreate struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	RuleType    string         `json:"rule_type"`
	Config      map[string]any `json:"config"`
	Severity    string         `json:"severity,omitempty"`
}
