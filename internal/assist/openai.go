package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/anthropics/chemlab-engine/internal/catalog"
	"github.com/anthropics/chemlab-engine/internal/domain"
)

const predictSystemPrompt = `You are a chemistry reaction engine. Given a JSON list of solutions
(chemical formula, type, concentration in mol/L, volume in ml), predict what happens when they are
mixed. Respond with JSON only:
{"products":[{"id":"","name":"","formula":"","type":"acid|base|indicator|salt|solvent|oxidant|reductant|other","concentration":0,"volume_ml":0}],
"ph":7,"color":"transparent","gas_produced":null,"precipitate_formed":null,"is_explosive":false,
"temperature_change":0,"description":"","equation":""}
The product volumes must sum exactly to the input volumes. If nothing reacts, return the inputs as
products with description "no reaction".`

const suggestSystemPrompt = `You are a chemistry lab tutor. Given the current workbench state and the
action history, suggest the single most sensible next step. Respond with JSON only:
{"next_step_suggestion":"","hint":"","rationale":""}`

const searchSystemPrompt = `You are a chemistry catalog assistant. Given a free-text query, return
matching chemicals or apparatus as JSON only:
{"chemicals":[{"id":"","name":"","formula":"","type":"","concentration":0}],
"equipment":[{"id":"","name":"","type":"","capacity_ml":0}]}
Return empty lists when nothing matches.`

// OpenAIClient implements Predictor, Searcher, and Advisor over the OpenAI
// chat completion API.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewOpenAIClient creates a client for the given API key and model. A zero
// timeout defaults to 30 seconds.
func NewOpenAIClient(apiKey, model string, timeout time.Duration, logger *zap.SugaredLogger) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIClient{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

// complete sends one system+user exchange and returns the raw response text.
func (c *OpenAIClient) complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", domain.WrapEngineError(domain.ErrPredictionTimeout.Code, "completion timed out", err)
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// predictionWire is the JSON shape the model is asked to produce.
type predictionWire struct {
	Products []struct {
		ID            string  `json:"id"`
		Name          string  `json:"name"`
		Formula       string  `json:"formula"`
		Type          string  `json:"type"`
		Concentration float64 `json:"concentration"`
		VolumeML      float64 `json:"volume_ml"`
	} `json:"products"`
	PH                float64 `json:"ph"`
	Color             string  `json:"color"`
	GasProduced       *string `json:"gas_produced"`
	PrecipitateFormed *string `json:"precipitate_formed"`
	IsExplosive       bool    `json:"is_explosive"`
	TemperatureChange float64 `json:"temperature_change"`
	Description       string  `json:"description"`
	Equation          string  `json:"equation"`
}

// PredictReaction asks the model for the reaction outcome. Any failure,
// malformed response, or empty product list yields the NoReaction fallback
// alongside the error so the caller can log and leave state unchanged.
func (c *OpenAIClient) PredictReaction(ctx context.Context, inputs []domain.Solution) (domain.Prediction, error) {
	payload, err := json.Marshal(inputs)
	if err != nil {
		return NoReaction(inputs), domain.WrapEngineError(domain.ErrPredictionFailed.Code, "encode inputs", err)
	}

	raw, err := c.complete(ctx, predictSystemPrompt, string(payload))
	if err != nil {
		c.logger.Warnw("reaction prediction failed", "error", err)
		return NoReaction(inputs), domain.WrapEngineError(domain.ErrPredictionFailed.Code, "predict reaction", err)
	}

	var wire predictionWire
	if err := json.Unmarshal([]byte(extractJSON(raw)), &wire); err != nil {
		c.logger.Warnw("reaction prediction returned malformed JSON", "error", err)
		return NoReaction(inputs), domain.WrapEngineError(domain.ErrPredictionFailed.Code, "decode prediction", err)
	}
	if len(wire.Products) == 0 {
		return NoReaction(inputs), domain.WrapEngineError(domain.ErrPredictionFailed.Code, "prediction has no products", nil)
	}

	out := domain.Prediction{
		PH:                wire.PH,
		Color:             wire.Color,
		IsExplosive:       wire.IsExplosive,
		TemperatureChange: wire.TemperatureChange,
		Description:       wire.Description,
		Equation:          wire.Equation,
	}
	if wire.GasProduced != nil {
		out.GasProduced = *wire.GasProduced
	}
	if wire.PrecipitateFormed != nil {
		out.PrecipitateFormed = *wire.PrecipitateFormed
	}
	for _, p := range wire.Products {
		chemType := domain.ChemicalType(p.Type)
		switch chemType {
		case domain.ChemAcid, domain.ChemBase, domain.ChemIndicator, domain.ChemSalt,
			domain.ChemSolvent, domain.ChemOxidant, domain.ChemReductant, domain.ChemOther:
		default:
			chemType = domain.ChemOther
		}
		out.Products = append(out.Products, domain.Solution{
			Chemical: domain.Chemical{
				ID:            p.ID,
				Name:          p.Name,
				Formula:       p.Formula,
				Type:          chemType,
				Concentration: p.Concentration,
			},
			VolumeML: p.VolumeML,
		})
	}
	return out, nil
}

// searchWire is the JSON shape of a catalog search response.
type searchWire struct {
	Chemicals []domain.Chemical          `json:"chemicals"`
	Equipment []domain.EquipmentTemplate `json:"equipment"`
}

// SearchCatalog asks the model to resolve the query, falling back to the
// local substring search on any failure. The fallback keeps search working
// offline; the empty list stays a valid result either way.
func (c *OpenAIClient) SearchCatalog(ctx context.Context, query string) ([]domain.CatalogRecord, error) {
	raw, err := c.complete(ctx, searchSystemPrompt, query)
	if err != nil {
		c.logger.Warnw("catalog search fell back to local matching", "error", err)
		return catalog.Search(query), nil
	}

	var wire searchWire
	if err := json.Unmarshal([]byte(extractJSON(raw)), &wire); err != nil {
		c.logger.Warnw("catalog search returned malformed JSON", "error", err)
		return catalog.Search(query), nil
	}

	var hits []domain.CatalogRecord
	for i := range wire.Chemicals {
		hits = append(hits, domain.CatalogRecord{Chemical: &wire.Chemicals[i]})
	}
	for i := range wire.Equipment {
		hits = append(hits, domain.CatalogRecord{Equipment: &wire.Equipment[i]})
	}
	return hits, nil
}

// SuggestNextStep asks the model for an advisory next step.
func (c *OpenAIClient) SuggestNextStep(ctx context.Context, state domain.ExperimentState, history []string) (domain.Suggestion, error) {
	snapshot, err := json.Marshal(struct {
		Equipment []domain.Equipment `json:"equipment"`
		History   []string           `json:"history"`
	}{Equipment: state.Equipment, History: history})
	if err != nil {
		return domain.Suggestion{}, domain.WrapEngineError(domain.ErrSuggestionFailed.Code, "encode snapshot", err)
	}

	raw, err := c.complete(ctx, suggestSystemPrompt, string(snapshot))
	if err != nil {
		return domain.Suggestion{}, domain.WrapEngineError(domain.ErrSuggestionFailed.Code, "suggest next step", err)
	}

	var s domain.Suggestion
	if err := json.Unmarshal([]byte(extractJSON(raw)), &s); err != nil {
		return domain.Suggestion{}, domain.WrapEngineError(domain.ErrSuggestionFailed.Code, "decode suggestion", err)
	}
	return s, nil
}

// extractJSON trims markdown code fences some models wrap around JSON.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
