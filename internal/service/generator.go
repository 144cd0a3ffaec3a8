package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/omadchef/omadchef-v2/backend/internal/validation"
)

// GeneratorService handles interactions with the DeepSeek API. It only
// produces candidates; every candidate goes through validation before it
// is cached or persisted.
type GeneratorService struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewGeneratorService creates a new GeneratorService instance
func NewGeneratorService(apiKey, apiURL string) (*GeneratorService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("generator API key must be set")
	}
	if apiURL == "" {
		apiURL = "https://api.deepseek.com/v1/chat/completions"
	}

	return &GeneratorService{
		apiKey: apiKey,
		apiURL: apiURL,
		client: http.DefaultClient,
	}, nil
}

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request represents a request to the DeepSeek API
type Request struct {
	Model            string            `json:"model"`
	Messages         []Message         `json:"messages"`
	ResponseFormat   map[string]string `json:"response_format"`
	Temperature      float64           `json:"temperature"`
	TopP             float64           `json:"top_p"`
	FrequencyPenalty float64           `json:"frequency_penalty"`
	PresencePenalty  float64           `json:"presence_penalty"`
}

const mealSchemaPrompt = `You are a professional chef and nutritionist planning single large daily meals. Please provide your response in JSON format with the following structure:
{
    "name": "Meal name",
    "cooking_method": "pressure_cooker",
    "cuisine_type": "One of: Italian, French, Chinese, Japanese, Thai, Indian, Mexican, Mediterranean, American, Korean, Spanish, Moroccan, or Other",
    "primary_protein": "The main protein source, e.g. chicken thigh, beef chuck, chickpeas",
    "ingredients": [
        {"name": "chicken thigh", "quantity": 500, "unit": "g", "calories": 1095, "protein_g": 93, "carbs_g": 0, "fat_g": 78, "fiber_g": 0}
    ],
    "instructions": [
        {"step": 1, "text": "Add the chicken and stock to the pot."},
        {"step": 2, "text": "Seal the lid and cook on high pressure for 12 minutes."}
    ],
    "nutrition_summary": {"calories": 2300, "protein_g": 145, "carbs_g": 250, "fat_g": 80, "fiber_g": 32}
}

Note: all quantity and nutrition fields must be numbers, not strings.
Valid units are: g, ml, l, piece, tbsp, tsp.
The nutrition_summary must equal the sum of the per-ingredient values.`

// GenerateMeal generates a single candidate meal using the DeepSeek API.
func (s *GeneratorService) GenerateMeal(ctx context.Context, req GenerationRequest) (*validation.Meal, error) {
	content, err := s.complete(ctx, mealSchemaPrompt, s.mealPrompt(req))
	if err != nil {
		return nil, err
	}

	var meal validation.Meal
	if err := json.Unmarshal([]byte(content), &meal); err != nil {
		return nil, fmt.Errorf("failed to parse meal: %w", err)
	}
	return &meal, nil
}

// GeneratePlan generates a candidate 7-day plan using the DeepSeek API.
func (s *GeneratorService) GeneratePlan(ctx context.Context, req GenerationRequest) (*validation.Plan, error) {
	prompt := s.mealPrompt(req) +
		"\n\nGenerate a full 7-day plan: respond with {\"days\": [ ... ]} containing exactly 7 meal objects, one per day." +
		" Use a different primary protein and cuisine across the week wherever possible, and never repeat a protein or cuisine on consecutive days."

	content, err := s.complete(ctx, mealSchemaPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var plan validation.Plan
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	return &plan, nil
}

// RegenerateDay generates a replacement meal for one day of an existing
// plan. The surrounding days are included so the generator can avoid
// reintroducing consecutive repeats.
func (s *GeneratorService) RegenerateDay(ctx context.Context, req GenerationRequest, plan *validation.Plan, day int) (*validation.Meal, error) {
	if plan == nil || day < 0 || day >= len(plan.Days) {
		return nil, &validation.InvalidInputError{Field: "day", Reason: "out of range"}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Replace day %d of an existing 7-day plan. The other days are:\n", day+1)
	for i, m := range plan.Days {
		if i == day {
			continue
		}
		fmt.Fprintf(&sb, "Day %d: %s (%s, %s)\n", i+1, m.Name, m.PrimaryProtein, m.CuisineType)
	}
	sb.WriteString("The replacement must not share a primary protein or cuisine with the adjacent days.\n\n")
	sb.WriteString(s.mealPrompt(req))

	content, err := s.complete(ctx, mealSchemaPrompt, sb.String())
	if err != nil {
		return nil, err
	}

	var meal validation.Meal
	if err := json.Unmarshal([]byte(content), &meal); err != nil {
		return nil, fmt.Errorf("failed to parse meal: %w", err)
	}
	return &meal, nil
}

func (s *GeneratorService) mealPrompt(req GenerationRequest) string {
	prompt := fmt.Sprintf("Generate one large daily meal of about %d calories, prepared in a %s.",
		req.CalorieTarget, strings.ReplaceAll(string(req.CookingMethod), "_", " "))
	if len(req.DietaryRestrictions) > 0 {
		prompt += " The meal must be suitable for: " + strings.Join(req.DietaryRestrictions, ", ") + "."
	}
	if len(req.PreferredProteins) > 0 {
		prompt += " Preferred proteins: " + strings.Join(req.PreferredProteins, ", ") + "."
	}
	if req.Notes != "" {
		prompt += " " + req.Notes
	}
	if len(req.Feedback) > 0 {
		prompt += "\n\nA previous attempt failed validation. Fix these problems:\n- " + strings.Join(req.Feedback, "\n- ")
	}
	return prompt
}

func (s *GeneratorService) complete(ctx context.Context, system, user string) (string, error) {
	reqBody := Request{
		Model: "deepseek-chat",
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: map[string]string{
			"type": "json_object",
		},
		Temperature:      0.9, // Higher temperature for more creativity
		TopP:             0.9, // Higher top_p for more diverse outputs
		FrequencyPenalty: 0.5, // Penalize repeated tokens
		PresencePenalty:  0.5, // Encourage new topics
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return result.Choices[0].Message.Content, nil
}
