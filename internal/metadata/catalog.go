package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CatalogResponse is the decoded body of one volumes query
type CatalogResponse struct {
	ISBN       string        `json:"-"`
	Kind       string        `json:"kind"`
	TotalItems int           `json:"totalItems"`
	Items      []CatalogItem `json:"items"`
}

// HasItems reports whether the response carries at least one catalog entry
func (r *CatalogResponse) HasItems() bool {
	return r != nil && len(r.Items) > 0
}

// CatalogItem is one entry of a volumes query.
// VolumeInfo is nil when the API omitted it.
type CatalogItem struct {
	ID         string      `json:"id"`
	SelfLink   string      `json:"selfLink,omitempty"`
	VolumeInfo *VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo holds the descriptive metadata of a volume.
// Every typed field is nil when absent from the response, so presence is
// explicit. Keys the typed view does not name are kept as well, so a decoded
// volume round-trips in full.
type VolumeInfo struct {
	Title               *string              `json:"title"`
	Subtitle            *string              `json:"subtitle"`
	Authors             []string             `json:"authors"`
	Publisher           *string              `json:"publisher"`
	PublishedDate       *string              `json:"publishedDate"`
	Description         *string              `json:"description"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
	PageCount           *int                 `json:"pageCount"`
	PrintType           *string              `json:"printType"`
	Categories          []string             `json:"categories"`
	AverageRating       *float64             `json:"averageRating"`
	RatingsCount        *int                 `json:"ratingsCount"`
	MaturityRating      *string              `json:"maturityRating"`
	ImageLinks          *ImageLinks          `json:"imageLinks"`
	Language            *string              `json:"language"`
	PreviewLink         *string              `json:"previewLink"`
	InfoLink            *string              `json:"infoLink"`
	CanonicalVolumeLink *string              `json:"canonicalVolumeLink"`

	// raw holds every key of the decoded object in source order
	raw []rawField
}

type rawField struct {
	name  string
	value json.RawMessage
}

// IndustryIdentifier is an ISBN_10/ISBN_13/OTHER identifier of a volume
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// ImageLinks holds cover image URLs
type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	Small          string `json:"small,omitempty"`
	Medium         string `json:"medium,omitempty"`
	Large          string `json:"large,omitempty"`
	ExtraLarge     string `json:"extraLarge,omitempty"`
}

// UnmarshalJSON decodes the typed view and keeps every key in source order
func (v *VolumeInfo) UnmarshalJSON(data []byte) error {
	type plain VolumeInfo
	var typed plain
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}

	raw, err := orderedObject(data)
	if err != nil {
		return fmt.Errorf("volumeInfo: %w", err)
	}

	*v = VolumeInfo(typed)
	v.raw = raw
	return nil
}

// orderedObject splits a JSON object into its keys and raw values. A
// repeated key keeps its first position and its last value.
func orderedObject(data []byte) ([]rawField, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	fields := []rawField{}
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		if i, seen := index[name]; seen {
			fields[i].value = value
			continue
		}
		index[name] = len(fields)
		fields = append(fields, rawField{name: name, value: value})
	}
	return fields, nil
}

// Field is one present volume info field, named by its JSON key
type Field struct {
	Name  string
	Value any
}

// Fields returns the present fields. A decoded volume yields every key of
// the response in source order with its raw JSON value (null becomes a nil
// Value); a volume built in code yields its typed fields in schema order.
func (v *VolumeInfo) Fields() []Field {
	if v == nil {
		return nil
	}

	if v.raw != nil {
		fields := make([]Field, 0, len(v.raw))
		for _, f := range v.raw {
			var value any
			if !bytes.Equal(bytes.TrimSpace(f.value), []byte("null")) {
				value = f.value
			}
			fields = append(fields, Field{Name: f.name, Value: value})
		}
		return fields
	}

	var fields []Field
	add := func(name string, present bool, value any) {
		if present {
			fields = append(fields, Field{Name: name, Value: value})
		}
	}

	add("title", v.Title != nil, deref(v.Title))
	add("subtitle", v.Subtitle != nil, deref(v.Subtitle))
	add("authors", v.Authors != nil, v.Authors)
	add("publisher", v.Publisher != nil, deref(v.Publisher))
	add("publishedDate", v.PublishedDate != nil, deref(v.PublishedDate))
	add("description", v.Description != nil, deref(v.Description))
	add("industryIdentifiers", v.IndustryIdentifiers != nil, v.IndustryIdentifiers)
	add("pageCount", v.PageCount != nil, deref(v.PageCount))
	add("printType", v.PrintType != nil, deref(v.PrintType))
	add("categories", v.Categories != nil, v.Categories)
	add("averageRating", v.AverageRating != nil, deref(v.AverageRating))
	add("ratingsCount", v.RatingsCount != nil, deref(v.RatingsCount))
	add("maturityRating", v.MaturityRating != nil, deref(v.MaturityRating))
	add("imageLinks", v.ImageLinks != nil, v.ImageLinks)
	add("language", v.Language != nil, deref(v.Language))
	add("previewLink", v.PreviewLink != nil, deref(v.PreviewLink))
	add("infoLink", v.InfoLink != nil, deref(v.InfoLink))
	add("canonicalVolumeLink", v.CanonicalVolumeLink != nil, deref(v.CanonicalVolumeLink))

	return fields
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
