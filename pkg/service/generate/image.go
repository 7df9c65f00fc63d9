package generate

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/adapter"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"google.golang.org/genai"
)

//go:embed prompt/image.md
var imagePromptRaw string

var imagePromptTmpl = template.Must(template.New("image").Parse(imagePromptRaw))

//go:embed asset/placeholder.svg
var placeholderSVG []byte

var placeholderImage = model.NewDataURI(placeholderSVG, "image/svg+xml")

// PlaceholderImage is shown when an illustration cannot be generated
func PlaceholderImage() model.DataURI {
	return placeholderImage
}

// ImageGenerator draws an illustration of a species
type ImageGenerator interface {
	GenerateImage(ctx context.Context, name string, category model.Category) Result[model.DataURI]
}

// Image implements ImageGenerator with a Gemini image model
type Image struct {
	gemini adapter.Gemini
}

var _ ImageGenerator = (*Image)(nil)

func NewImage(gemini adapter.Gemini) *Image {
	return &Image{gemini: gemini}
}

func (g *Image) GenerateImage(ctx context.Context, name string, category model.Category) Result[model.DataURI] {
	var buf bytes.Buffer
	if err := imagePromptTmpl.Execute(&buf, map[string]any{
		"Name":     name,
		"Category": category,
	}); err != nil {
		return Fail[model.DataURI](goerr.Wrap(err, "failed to execute image prompt template"))
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	contents := []*genai.Content{
		genai.NewContentFromText(buf.String(), genai.RoleUser),
	}

	resp, err := g.gemini.GenerateImage(ctx, contents, config)
	if err != nil {
		return Fail[model.DataURI](goerr.Wrap(model.ErrGenerationFailed, "failed to generate image",
			goerr.V("name", name),
			goerr.V("error", err.Error())))
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Fail[model.DataURI](goerr.Wrap(model.ErrGenerationFailed, "empty image response", goerr.V("name", name)))
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		if !strings.HasPrefix(part.InlineData.MIMEType, "image/") {
			continue
		}
		return Ok(model.NewDataURI(part.InlineData.Data, part.InlineData.MIMEType))
	}

	return Fail[model.DataURI](goerr.Wrap(model.ErrGenerationFailed, "no image in response", goerr.V("name", name)))
}
