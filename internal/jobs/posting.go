package jobs

import (
	"regexp"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldRedirectURL = "redirect_url"
)

var (
	requiredFields = []string{FieldTitle, FieldDescription, FieldRedirectURL}
	jobIDRe        = regexp.MustCompile(`/details/(\d+)`)
)

// Posting is a raw job listing as decoded from the job source, before normalization.
type Posting map[string]any

// ID identifies a job record. The zero value is the null id carried by
// postings whose URL holds no identifier; it never equals a real id.
type ID struct {
	Value string
	Valid bool
}

// NewID returns a valid id.
func NewID(value string) ID {
	return ID{Value: value, Valid: true}
}

func (id ID) String() string {
	if !id.Valid {
		return "<null>"
	}
	return id.Value
}

// Record is the normalized, immutable representation of a posting.
type Record struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Company     string `json:"company"`
	SourceURL   string `json:"source_url"`
}

type postingFields struct {
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
	RedirectURL string `mapstructure:"redirect_url"`
	Location    struct {
		DisplayName string `mapstructure:"display_name"`
	} `mapstructure:"location"`
	Category struct {
		Label string `mapstructure:"label"`
	} `mapstructure:"category"`
	Company struct {
		DisplayName string `mapstructure:"display_name"`
	} `mapstructure:"company"`
}

// ExtractID pulls the numeric job identifier out of a posting URL.
func ExtractID(url string) ID {
	m := jobIDRe.FindStringSubmatch(url)
	if m == nil {
		return ID{}
	}
	return NewID(m[1])
}

// normalize converts a raw posting into a Record. Only a missing required key is an error;
// optional fields that are absent or of an unexpected shape degrade to empty strings.
func normalize(idx int, p Posting, log *zap.Logger) (Record, error) {
	for _, field := range requiredFields {
		if _, ok := p[field]; !ok {
			return Record{}, &MalformedPostingError{Index: idx, Field: field}
		}
	}

	var fields postingFields
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &fields,
	})
	if err != nil {
		return Record{}, err
	}

	// mapstructure keeps decoding after a field fails, so the partial result is still usable.
	if err := decoder.Decode(map[string]any(p)); err != nil {
		log.Debug("posting decoded with defaults",
			zap.Int("index", idx),
			zap.Error(err),
		)
	}

	return Record{
		ID:          ExtractID(fields.RedirectURL),
		Title:       fields.Title,
		Location:    fields.Location.DisplayName,
		Category:    fields.Category.Label,
		Description: fields.Description,
		Company:     fields.Company.DisplayName,
		SourceURL:   fields.RedirectURL,
	}, nil
}
