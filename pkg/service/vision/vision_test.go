package vision_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/snaptheplant/fieldguide/pkg/adapter"
	"github.com/snaptheplant/fieldguide/pkg/model"
	"github.com/snaptheplant/fieldguide/pkg/service/vision"
	"google.golang.org/genai"
)

const testImage = model.DataURI("data:image/png;base64,iVBORw0KGgo=")

type mockGemini struct {
	text     string
	err      error
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.contents = contents
	m.config = config
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(m.text, genai.RoleModel)},
		},
	}, nil
}

func (m *mockGemini) GenerateImage(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, errors.New("not supported")
}

var _ adapter.Gemini = (*mockGemini)(nil)

func TestAnalyzeIdentify(t *testing.T) {
	gemini := &mockGemini{text: `{
		"name": " Bizarro Bug ",
		"scientificName": "Bizarria bizarris",
		"isPoisonous": false,
		"toxicityWarning": "should be dropped",
		"keyInformation": "Rarely seen.",
		"careTips": []
	}`}
	analyzer := vision.NewGemini(gemini)

	analysis, err := analyzer.Analyze(context.Background(), testImage, model.CategoryInsect)
	gt.NoError(t, err)
	gt.Equal(t, analysis.Kind, model.AnalysisDirect)
	gt.Equal(t, analysis.Identification.Name, "Bizarro Bug")
	gt.Equal(t, analysis.Identification.ScientificName, "Bizarria bizarris")
	gt.Equal(t, analysis.Identification.ToxicityWarning, "")

	// request carries the prompt and the photo
	gt.A(t, gemini.contents).Length(1)
	parts := gemini.contents[0].Parts
	gt.A(t, parts).Length(2)
	gt.S(t, parts[0].Text).Contains("Insect")
	gt.S(t, parts[0].Text).Contains("an empty list")
	gt.V(t, parts[1].InlineData).NotNil()
	gt.Equal(t, parts[1].InlineData.MIMEType, "image/png")

	gt.Equal(t, gemini.config.ResponseMIMEType, "application/json")
	gt.V(t, gemini.config.ResponseSchema).NotNil()
	gt.V(t, gemini.config.ResponseSchema.Properties["scientificName"]).NotNil()
}

func TestAnalyzeAttributes(t *testing.T) {
	gemini := &mockGemini{text: `{"attributes": [
		{"key": "color", "value": "Yellow"},
		{"key": "wings", "value": "yes"},
		{"key": "stripes", "value": "black"}
	], "isPoisonous": true}`}
	analyzer := vision.NewGemini(gemini, vision.WithMode(vision.ModeAttributes))

	analysis, err := analyzer.Analyze(context.Background(), testImage, model.CategoryInsect)
	gt.NoError(t, err)
	gt.Equal(t, analysis.Kind, model.AnalysisAttributes)
	gt.Equal(t, analysis.Guess.Attributes, model.Attributes{"color": "yellow", "wings": "yes"})
	gt.V(t, analysis.Guess.IsPoisonous).NotNil()
	gt.True(t, *analysis.Guess.IsPoisonous)

	prompt := gemini.contents[0].Parts[0].Text
	gt.S(t, prompt).Contains("`legs`")
	gt.S(t, prompt).Contains("How many legs")

	keySchema := gemini.config.ResponseSchema.Properties["attributes"].Items.Properties["key"]
	gt.Equal(t, keySchema.Enum, []string{"color", "wings", "legs"})
}

func TestAnalyzeInputErrors(t *testing.T) {
	gemini := &mockGemini{text: `{}`}
	analyzer := vision.NewGemini(gemini)
	ctx := context.Background()

	_, err := analyzer.Analyze(ctx, "", model.CategoryInsect)
	gt.True(t, errors.Is(err, model.ErrNoImage))

	_, err = analyzer.Analyze(ctx, "not a data uri", model.CategoryInsect)
	gt.True(t, errors.Is(err, model.ErrInvalidDataURI))

	_, err = analyzer.Analyze(ctx, testImage, "Fungus")
	gt.True(t, errors.Is(err, model.ErrInvalidCategory))

	gt.A(t, gemini.contents).Length(0)
}

func TestAnalyzeServiceError(t *testing.T) {
	failure := errors.New("deadline exceeded")
	analyzer := vision.NewGemini(&mockGemini{err: failure})

	_, err := analyzer.Analyze(context.Background(), testImage, model.CategoryPlant)
	gt.True(t, errors.Is(err, failure))
}

func TestParseAttributesShapes(t *testing.T) {
	testCases := []struct {
		name   string
		json   string
		expect model.Attributes
	}{
		{
			name:   "list",
			json:   `{"attributes": [{"key": "color", "value": "red"}, {"key": "size", "value": "Small"}]}`,
			expect: model.Attributes{"color": "red", "size": "small"},
		},
		{
			name:   "map",
			json:   `{"attributes": {"Color": "RED", "shape": "lobed", "aroma": "sweet"}}`,
			expect: model.Attributes{"color": "red", "shape": "lobed"},
		},
		{
			name:   "empty list",
			json:   `{"attributes": []}`,
			expect: model.Attributes{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			analysis, err := vision.ParseAttributes(tc.json, model.CategoryPlant)
			gt.NoError(t, err)
			gt.Equal(t, analysis.Guess.Attributes, tc.expect)
			gt.Nil(t, analysis.Guess.IsPoisonous)
		})
	}

	t.Run("typed map values", func(t *testing.T) {
		analysis, err := vision.ParseAttributes(`{"attributes": {"wings": true, "legs": 6}}`, model.CategoryInsect)
		gt.NoError(t, err)
		gt.Equal(t, analysis.Guess.Attributes, model.Attributes{"wings": "yes", "legs": "6"})
	})
}

func TestParseMalformed(t *testing.T) {
	inputs := []string{
		`not json`,
		`{}`,
		`{"attributes": "red"}`,
		`{"attributes": [1, 2]}`,
	}
	for _, input := range inputs {
		_, err := vision.ParseAttributes(input, model.CategoryPlant)
		gt.True(t, errors.Is(err, model.ErrMalformedAnalysis))
	}

	for _, input := range []string{`not json`, `{}`, `{"name": "   ", "scientificName": "X"}`} {
		_, err := vision.ParseIdentification(input)
		gt.True(t, errors.Is(err, model.ErrMalformedAnalysis))
	}
}

func TestParseIdentificationKeepsWarningWhenPoisonous(t *testing.T) {
	analysis, err := vision.ParseIdentification(`{
		"name": "Foxglove",
		"scientificName": "Digitalis purpurea",
		"isPoisonous": true,
		"toxicityWarning": "All parts are toxic.",
		"keyInformation": "Tall spikes of bell flowers.",
		"careTips": [{"title": "Sunlight", "description": "Partial shade."}, {"title": "", "description": ""}]
	}`)
	gt.NoError(t, err)
	gt.Equal(t, analysis.Identification.ToxicityWarning, "All parts are toxic.")
	gt.A(t, analysis.Identification.CareTips).Length(1)
}

func TestParseMode(t *testing.T) {
	mode, err := vision.ParseMode("attributes")
	gt.NoError(t, err)
	gt.Equal(t, mode, vision.ModeAttributes)

	_, err = vision.ParseMode("guess")
	gt.Error(t, err)
}

func TestGeminiAnalyzer(t *testing.T) {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}
	imagePath := os.Getenv("TEST_VISION_IMAGE")
	if imagePath == "" {
		t.Skip("TEST_VISION_IMAGE is not set")
	}

	ctx := context.Background()
	gemini, err := adapter.NewGemini(ctx, projectID, "us-central1")
	gt.NoError(t, err)

	data, err := os.ReadFile(imagePath)
	gt.NoError(t, err)

	analysis, err := vision.NewGemini(gemini).Analyze(ctx, model.NewDataURI(data, ""), model.CategoryPlant)
	gt.NoError(t, err)
	t.Log("identified:", analysis.Identification.Name, analysis.Identification.ScientificName)
}
