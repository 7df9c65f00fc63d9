package vision

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/adapter"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"google.golang.org/genai"
)

//go:embed prompt/attributes.md
var attributesPromptRaw string

//go:embed prompt/identify.md
var identifyPromptRaw string

var (
	attributesPromptTmpl = template.Must(template.New("attributes").Parse(attributesPromptRaw))
	identifyPromptTmpl   = template.Must(template.New("identify").Parse(identifyPromptRaw))
)

// Analyzer turns a photo into either an attribute guess or a direct
// identification. The result is always normalized and validated.
type Analyzer interface {
	Analyze(ctx context.Context, image model.DataURI, category model.Category) (*model.Analysis, error)
}

// Mode selects which response shape the analyzer asks for
type Mode string

const (
	// ModeAttributes answers the category quiz from the photo
	ModeAttributes Mode = "attributes"
	// ModeIdentify names the species directly
	ModeIdentify Mode = "identify"
)

// ParseMode converts a flag value to a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAttributes, ModeIdentify:
		return Mode(s), nil
	default:
		return "", goerr.New("unknown analysis mode", goerr.V("mode", s))
	}
}

// Gemini implements Analyzer with Gemini structured output
type Gemini struct {
	gemini adapter.Gemini
	mode   Mode
}

var _ Analyzer = (*Gemini)(nil)

type Option func(*Gemini)

func WithMode(mode Mode) Option {
	return func(g *Gemini) {
		g.mode = mode
	}
}

// NewGemini creates a Gemini analyzer. Default mode is ModeIdentify.
func NewGemini(gemini adapter.Gemini, opts ...Option) *Gemini {
	g := &Gemini{
		gemini: gemini,
		mode:   ModeIdentify,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gemini) Analyze(ctx context.Context, image model.DataURI, category model.Category) (*model.Analysis, error) {
	if err := category.Validate(); err != nil {
		return nil, err
	}
	mime, data, err := image.Decode()
	if err != nil {
		return nil, err
	}

	prompt, schema, err := g.buildPrompt(category)
	if err != nil {
		return nil, err
	}

	responseSchema, err := convertJSONSchemaToGenai(schema)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to convert response schema")
	}

	thinkingBudget := int32(0)
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  &thinkingBudget,
		},
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(data, mime),
		}, genai.RoleUser),
	}

	resp, err := g.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to analyze image",
			goerr.V("category", category),
			goerr.V("mode", g.mode))
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, goerr.Wrap(model.ErrMalformedAnalysis, "invalid response structure from gemini")
	}
	rawJSON := resp.Candidates[0].Content.Parts[0].Text

	switch g.mode {
	case ModeAttributes:
		return ParseAttributes(rawJSON, category)
	default:
		return ParseIdentification(rawJSON)
	}
}

func (g *Gemini) buildPrompt(category model.Category) (string, *jsonschema.Schema, error) {
	var buf bytes.Buffer

	switch g.mode {
	case ModeAttributes:
		if err := attributesPromptTmpl.Execute(&buf, map[string]any{
			"Category":  category,
			"Questions": model.Vocabulary(category),
		}); err != nil {
			return "", nil, goerr.Wrap(err, "failed to execute attributes prompt template")
		}
		return buf.String(), attributesSchema(category), nil

	case ModeIdentify:
		if err := identifyPromptTmpl.Execute(&buf, map[string]any{
			"Category": category,
			"CareTips": category.IsPlantLike(),
		}); err != nil {
			return "", nil, goerr.Wrap(err, "failed to execute identify prompt template")
		}
		return buf.String(), identificationSchema(), nil

	default:
		return "", nil, goerr.New("unknown analysis mode", goerr.V("mode", g.mode))
	}
}
