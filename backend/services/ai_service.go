package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"testplatform/backend/apperrors"
	"testplatform/backend/config"
	"testplatform/backend/models"
	"testplatform/backend/validation"
)

const (
	generateMinQuestions = 1
	generateMaxQuestions = 20
)

// AIService produces candidate questions through an OpenAI-compatible
// completion API. Candidates are never persisted here: the teacher approves
// them through the normal add-question path.
type AIService struct {
	api   *openai.Client
	model string
	Log   *log.Logger
}

func NewAIService(cfg *config.Config, logger *log.Logger) *AIService {
	apiConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		apiConfig.BaseURL = cfg.OpenAIBaseURL
	}
	return &AIService{
		api:   openai.NewClientWithConfig(apiConfig),
		model: cfg.OpenAIModel,
		Log:   logger,
	}
}

// candidate mirrors the JSON object the model is asked to produce per question.
type candidate struct {
	Stem        string   `json:"stem"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"`
	Explanation string   `json:"explanation"`
	TopicTag    string   `json:"topic_tag"`
	Difficulty  string   `json:"difficulty"`
}

type candidateList struct {
	Questions []candidate `json:"questions"`
}

// RejectedCandidate flags a model-produced question that failed validation.
type RejectedCandidate struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// GenerateResult carries validated candidates plus flagged rejects for
// teacher review.
type GenerateResult struct {
	Questions []validation.QuestionInput `json:"questions"`
	Rejected  []RejectedCandidate        `json:"rejected,omitempty"`
}

// GenerateQuestions asks the model for count questions on a topic and runs
// every returned item through the same validation as manual entry. A network
// or parse failure surfaces as a single external-service error.
func (s *AIService) GenerateQuestions(ctx context.Context, topic, syllabus string, count int, difficulty string) (*GenerateResult, error) {
	topic = validation.Sanitize(topic)
	syllabus = validation.Sanitize(syllabus)

	fields := make(map[string]string)
	if topic == "" {
		fields["Topic"] = "is required"
	}
	if syllabus == "" {
		fields["Syllabus"] = "is required"
	}
	if count < generateMinQuestions || count > generateMaxQuestions {
		fields["Count"] = fmt.Sprintf("must be between %d and %d", generateMinQuestions, generateMaxQuestions)
	}
	switch difficulty {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
	default:
		fields["Difficulty"] = "must be one of: easy, medium, hard"
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation("invalid generation request", fields)
	}

	resp, err := s.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are an expert assessment designer."},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(topic, syllabus, count, difficulty)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.4,
	})
	if err != nil {
		s.Log.Printf("AI generate failed topic=%q error=%v", topic, err)
		return nil, apperrors.External("question generation failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperrors.External("question generation failed", fmt.Errorf("provider returned no choices"))
	}

	raw := resp.Choices[0].Message.Content
	var list candidateList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		s.Log.Printf("AI generate returned malformed JSON topic=%q", topic)
		return nil, apperrors.External("provider returned malformed response", fmt.Errorf("parse response: %w (raw: %s)", err, raw))
	}

	result := &GenerateResult{Questions: make([]validation.QuestionInput, 0, len(list.Questions))}
	for i, cand := range list.Questions {
		in, err := validation.Question(validation.QuestionInput{
			Prompt:        cand.Stem,
			Options:       cand.Options,
			CorrectAnswer: cand.Correct,
			Explanation:   cand.Explanation,
			TopicTag:      cand.TopicTag,
			Difficulty:    cand.Difficulty,
		})
		if err != nil {
			s.Log.Printf("AI candidate rejected index=%d error=%v", i, err)
			result.Rejected = append(result.Rejected, RejectedCandidate{Index: i, Reason: err.Error()})
			continue
		}
		result.Questions = append(result.Questions, in)
	}

	s.Log.Printf("AI generate topic=%q requested=%d valid=%d rejected=%d",
		topic, count, len(result.Questions), len(result.Rejected))
	return result, nil
}

func buildPrompt(topic, syllabus string, count int, difficulty string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate exactly %d multiple-choice questions on the topic '%s' ", count, topic)
	sb.WriteString("based on the following syllabus/context:\n")
	sb.WriteString(syllabus)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Requirements: each question must have a clear stem, exactly %d distinct options, ", models.OptionCount)
	fmt.Fprintf(&sb, "the index of the correct option (0-%d), an explanation, a topic_tag, and difficulty='%s'.\n", models.OptionCount-1, difficulty)
	sb.WriteString(`Respond ONLY with a JSON object of the form {"questions": [...]} where each entry has keys: `)
	sb.WriteString("stem, options (array of 4 strings), correct (0-3), explanation, topic_tag, difficulty.")
	return sb.String()
}
