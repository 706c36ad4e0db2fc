package spectrum

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"spectrum-inventory/internal/domain"
)

// ErrParse is returned when a response body cannot be decoded
var ErrParse = errors.New("unable to parse Spectrum XML response")

// xmlModel is one <model> element of a model-response-list. Tags carry no
// namespace so elements match whatever namespace the server declares.
type xmlModel struct {
	Handle     string         `xml:"mh,attr"`
	Attributes []xmlAttribute `xml:"attribute"`
}

type xmlAttribute struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

// ParseModels decodes every <model> element in the document, at any depth,
// into a raw attribute set keyed by attribute ID
func ParseModels(r io.Reader) ([]map[string]string, error) {
	decoder := xml.NewDecoder(r)

	var models []map[string]string
	sawRoot := false

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true

		if start.Name.Local != "model" {
			continue
		}

		var m xmlModel
		if err := decoder.DecodeElement(&m, &start); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}

		attrs := make(map[string]string, len(m.Attributes))
		for _, a := range m.Attributes {
			attrs[a.ID] = a.Value
		}
		models = append(models, attrs)
	}

	if !sawRoot {
		return nil, fmt.Errorf("%w: empty document", ErrParse)
	}

	return models, nil
}

// ParseDevices decodes a model-response-list into canonical device records
func (m *AttributeMap) ParseDevices(r io.Reader) ([]domain.Record, error) {
	models, err := ParseModels(r)
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(models))
	for _, raw := range models {
		records = append(records, m.Canonicalize(raw))
	}
	return records, nil
}
