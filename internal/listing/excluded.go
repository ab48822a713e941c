package listing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Actors that put a posting into the exclude file.
const (
	ExcludeActorUser = "user"
	ExcludeActorAI   = "ai"
)

// Excluded is the content of the exclude file.
type Excluded struct {
	Items []*ExcludedPosting
}

// ExcludedPosting is a posting that must never be applied to.
type ExcludedPosting struct {
	URL        string
	Company    string
	Title      string
	Actor      string
	Reason     string `json:",omitempty"`
	ExcludedAt time.Time
}

// Exclude converts postings into exclude entries.
func (p *Postings) Exclude(actor, reason string) *Excluded {
	excluded := &Excluded{}
	for _, posting := range p.Items {
		excluded.Items = append(excluded.Items, &ExcludedPosting{
			URL:        posting.URL,
			Company:    posting.Company,
			Title:      posting.Title,
			Actor:      actor,
			Reason:     reason,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// LoadExcluded reads the exclude file. A missing or empty file is an empty
// list.
func LoadExcluded(path string) (*Excluded, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Excluded{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &Excluded{}, nil
	}

	var excluded Excluded
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, fmt.Errorf("decode exclude file %s: %w", path, err)
	}
	return &excluded, nil
}

func (e *Excluded) Append(other *Excluded) {
	e.Items = append(e.Items, other.Items...)
}

// URLs returns the set of excluded canonical URLs.
func (e *Excluded) URLs() map[string]struct{} {
	urls := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		urls[CanonicalURL(item.URL)] = struct{}{}
	}
	return urls
}

// ToFile rewrites the exclude file.
func (e *Excluded) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// AppendToFile adds postings to the exclude file at path.
func AppendToFile(path, actor, reason string, postings ...*Posting) error {
	excluded, err := LoadExcluded(path)
	if err != nil {
		return fmt.Errorf("load excluded postings: %w", err)
	}
	excluded.Append((&Postings{Items: postings}).Exclude(actor, reason))
	if err := excluded.ToFile(path); err != nil {
		return fmt.Errorf("write excluded postings: %w", err)
	}
	return nil
}
