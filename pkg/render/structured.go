package render

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/linetrend/pkg/linecount"
)

// Document is the serialized form of a series.
type Document struct {
	Commits int             `json:"commits" yaml:"commits"`
	XMax    int             `json:"x_max"   yaml:"x_max"`
	YMax    int             `json:"y_max"   yaml:"y_max"`
	Cache   CacheDocument   `json:"cache"   yaml:"cache"`
	Series  []EntryDocument `json:"series"  yaml:"series"`
}

// EntryDocument is one serialized series entry.
type EntryDocument struct {
	Ordinal int       `json:"ordinal" yaml:"ordinal"`
	Commit  string    `json:"commit"  yaml:"commit"`
	When    time.Time `json:"when"    yaml:"when"`
	Lines   int       `json:"lines"   yaml:"lines"`
}

// CacheDocument summarizes the object cache of the run.
type CacheDocument struct {
	Objects int     `json:"objects"  yaml:"objects"`
	Hits    int64   `json:"hits"     yaml:"hits"`
	Misses  int64   `json:"misses"   yaml:"misses"`
	HitRate float64 `json:"hit_rate" yaml:"hit_rate"`
}

// NewDocument converts series into its serialized form.
func NewDocument(series *linecount.Series) Document {
	bounds := series.Bounds()

	doc := Document{
		Commits: series.Len(),
		XMax:    bounds.XMax,
		YMax:    bounds.YMax,
		Cache: CacheDocument{
			Objects: series.Cache.Entries,
			Hits:    series.Cache.Hits,
			Misses:  series.Cache.Misses,
			HitRate: series.Cache.HitRate(),
		},
		Series: make([]EntryDocument, 0, series.Len()),
	}

	for _, e := range series.Entries {
		doc.Series = append(doc.Series, EntryDocument{
			Ordinal: e.Ordinal,
			Commit:  e.Commit.String(),
			When:    e.When,
			Lines:   e.Lines,
		})
	}

	return doc
}

// JSON writes series as indented JSON.
func JSON(w io.Writer, series *linecount.Series) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(NewDocument(series))
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// YAML writes series as YAML.
func YAML(w io.Writer, series *linecount.Series) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(NewDocument(series))
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return enc.Close()
}
