package vision

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/snaptheplant/fieldguide/pkg/model"
)

type attributeResponse struct {
	Attributes  json.RawMessage `json:"attributes"`
	IsPoisonous *bool           `json:"isPoisonous"`
}

type attributePair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ParseAttributes reads an attribute guess. The attributes field may be a
// list of {key, value} pairs or a plain object. Keys outside the category
// vocabulary are dropped.
func ParseAttributes(rawJSON string, category model.Category) (*model.Analysis, error) {
	var resp attributeResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(rawJSON)), &resp); err != nil {
		return nil, goerr.Wrap(model.ErrMalformedAnalysis, "failed to unmarshal attributes JSON",
			goerr.V("json", rawJSON),
			goerr.V("error", err.Error()))
	}

	attrs := model.Attributes{}
	raw := resp.Attributes
	switch {
	case len(raw) == 0 || string(raw) == "null":
		return nil, goerr.Wrap(model.ErrMalformedAnalysis, "attributes are missing", goerr.V("json", rawJSON))

	case raw[0] == '[':
		var pairs []attributePair
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return nil, goerr.Wrap(model.ErrMalformedAnalysis, "attributes list is malformed",
				goerr.V("json", rawJSON),
				goerr.V("error", err.Error()))
		}
		for _, p := range pairs {
			attrs[p.Key] = p.Value
		}

	case raw[0] == '{':
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, goerr.Wrap(model.ErrMalformedAnalysis, "attributes object is malformed",
				goerr.V("json", rawJSON),
				goerr.V("error", err.Error()))
		}
		for k, v := range m {
			switch value := v.(type) {
			case string:
				attrs[k] = value
			case bool:
				attrs[k] = "no"
				if value {
					attrs[k] = "yes"
				}
			case float64:
				attrs[k] = strconv.FormatFloat(value, 'f', -1, 64)
			}
		}

	default:
		return nil, goerr.Wrap(model.ErrMalformedAnalysis, "attributes have an unknown shape", goerr.V("json", rawJSON))
	}

	attrs = attrs.Normalize()
	for key := range attrs {
		if !category.HasAttributeKey(key) {
			delete(attrs, key)
		}
	}

	analysis := model.NewAttributeGuess(attrs, resp.IsPoisonous)
	if err := analysis.Validate(); err != nil {
		return nil, err
	}
	return analysis, nil
}

type identificationResponse struct {
	Name            string          `json:"name"`
	ScientificName  string          `json:"scientificName"`
	IsPoisonous     bool            `json:"isPoisonous"`
	ToxicityWarning string          `json:"toxicityWarning"`
	KeyInformation  string          `json:"keyInformation"`
	CareTips        []model.CareTip `json:"careTips"`
}

// ParseIdentification reads a direct identification. A response without a
// species name is malformed.
func ParseIdentification(rawJSON string) (*model.Analysis, error) {
	var resp identificationResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(rawJSON)), &resp); err != nil {
		return nil, goerr.Wrap(model.ErrMalformedAnalysis, "failed to unmarshal identification JSON",
			goerr.V("json", rawJSON),
			goerr.V("error", err.Error()))
	}

	id := &model.Identification{
		Name:           strings.TrimSpace(resp.Name),
		ScientificName: strings.TrimSpace(resp.ScientificName),
		IsPoisonous:    resp.IsPoisonous,
		KeyInformation: strings.TrimSpace(resp.KeyInformation),
	}
	if id.IsPoisonous {
		id.ToxicityWarning = strings.TrimSpace(resp.ToxicityWarning)
	}
	for _, tip := range resp.CareTips {
		if strings.TrimSpace(tip.Title) == "" && strings.TrimSpace(tip.Description) == "" {
			continue
		}
		id.CareTips = append(id.CareTips, tip)
	}

	analysis := model.NewDirectIdentification(id)
	if err := analysis.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid identification", goerr.V("json", rawJSON))
	}
	return analysis, nil
}
