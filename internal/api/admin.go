package api

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/smartmail/internal/domain"
)

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.get(ctx, "/admin/users", nil, &users); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int64, upd domain.UserUpdate) (*domain.User, error) {
	var u domain.User
	if err := c.patch(ctx, pathf("/admin/users/%d", id), upd, &u); err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return &u, nil
}

func (c *Client) LLMSettings(ctx context.Context) (*domain.LLMSettings, error) {
	var s domain.LLMSettings
	if err := c.get(ctx, "/admin-settings/llm", nil, &s); err != nil {
		return nil, fmt.Errorf("failed to get llm settings: %w", err)
	}
	return &s, nil
}

func (c *Client) UpdateLLMSettings(ctx context.Context, upd domain.LLMSettingsUpdate) (*domain.LLMSettings, error) {
	var s domain.LLMSettings
	if err := c.put(ctx, "/admin-settings/llm", upd, &s); err != nil {
		return nil, fmt.Errorf("failed to update llm settings: %w", err)
	}
	return &s, nil
}

func (c *Client) ListPrompts(ctx context.Context) ([]domain.PromptTemplate, error) {
	var prompts []domain.PromptTemplate
	if err := c.get(ctx, "/admin-settings/prompts", nil, &prompts); err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	return prompts, nil
}

func (c *Client) CreatePrompt(ctx context.Context, in domain.PromptTemplateCreate) (*domain.PromptTemplate, error) {
	var p domain.PromptTemplate
	if err := c.post(ctx, "/admin-settings/prompts", in, &p); err != nil {
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}
	return &p, nil
}

// UpdatePrompt edits a template. The backend bumps its version.
func (c *Client) UpdatePrompt(ctx context.Context, id int64, upd domain.PromptTemplateUpdate) (*domain.PromptTemplate, error) {
	var p domain.PromptTemplate
	if err := c.put(ctx, pathf("/admin-settings/prompts/%d", id), upd, &p); err != nil {
		return nil, fmt.Errorf("failed to update prompt %d: %w", id, err)
	}
	return &p, nil
}

func (c *Client) ListPolicies(ctx context.Context) ([]domain.PolicyRule, error) {
	var rules []domain.PolicyRule
	if err := c.get(ctx, "/admin-settings/policies", nil, &rules); err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	return rules, nil
}

func (c *Client) CreatePolicy(ctx context.Context, in domain.PolicyRuleCreate) (*domain.PolicyRule, error) {
	var r domain.PolicyRule
	if err := c.post(ctx, "/admin-settings/policies", in, &r); err != nil {
		return nil, fmt.Errorf("failed to create policy: %w", err)
	}
	return &r, nil
}

func (c *Client) DeletePolicy(ctx context.Context, id int64) error {
	if err := c.delete(ctx, pathf("/admin-settings/policies/%d", id), nil); err != nil {
		return fmt.Errorf("failed to delete policy %d: %w", id, err)
	}
	return nil
}
