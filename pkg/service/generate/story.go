package generate

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/adapter"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"google.golang.org/genai"
)

//go:embed prompt/story.md
var storyPromptRaw string

var storyPromptTmpl = template.Must(template.New("story").Parse(storyPromptRaw))

// FallbackStory is the canned story used when generation fails
func FallbackStory(name string, category model.Category) string {
	return fmt.Sprintf("Once upon a time, in a sunny garden, there was a lovely %s. "+
		"It was a very special %s that loved to watch the world go by.", name, category)
}

// StoryGenerator writes a short children's story about a species
type StoryGenerator interface {
	GenerateStory(ctx context.Context, name string, category model.Category) Result[string]
}

// Story implements StoryGenerator with Gemini structured output
type Story struct {
	gemini adapter.Gemini
}

var _ StoryGenerator = (*Story)(nil)

func NewStory(gemini adapter.Gemini) *Story {
	return &Story{gemini: gemini}
}

func (g *Story) GenerateStory(ctx context.Context, name string, category model.Category) Result[string] {
	var buf bytes.Buffer
	if err := storyPromptTmpl.Execute(&buf, map[string]any{
		"Name":     name,
		"Category": category,
	}); err != nil {
		return Fail[string](goerr.Wrap(err, "failed to execute story prompt template"))
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"story": {
					Type:        genai.TypeString,
					Description: "The story text",
				},
			},
			Required: []string{"story"},
		},
	}
	contents := []*genai.Content{
		genai.NewContentFromText(buf.String(), genai.RoleUser),
	}

	resp, err := g.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return Fail[string](goerr.Wrap(model.ErrGenerationFailed, "failed to generate story",
			goerr.V("name", name),
			goerr.V("error", err.Error())))
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Fail[string](goerr.Wrap(model.ErrGenerationFailed, "invalid response structure from gemini"))
	}

	rawJSON := resp.Candidates[0].Content.Parts[0].Text
	var data struct {
		Story string `json:"story"`
	}
	if err := json.Unmarshal([]byte(rawJSON), &data); err != nil {
		return Fail[string](goerr.Wrap(model.ErrGenerationFailed, "failed to unmarshal story JSON",
			goerr.V("json", rawJSON),
			goerr.V("error", err.Error())))
	}

	story := strings.TrimSpace(data.Story)
	if story == "" {
		return Fail[string](goerr.Wrap(model.ErrGenerationFailed, "story is empty", goerr.V("name", name)))
	}
	return Ok(story)
}
