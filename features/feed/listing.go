package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"
)

var (
	ErrInvalidListing = errors.New("invalid listing payload")
)

var bodyPolicy = bluemonday.StrictPolicy()

type listing struct {
	Data struct {
		Children []struct {
			Data rawItem `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type rawItem struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	Permalink           string  `json:"permalink"`
	Domain              string  `json:"domain"`
	CreatedUTC          float64 `json:"created_utc"`
	Score               int     `json:"score"`
	IsSelf              bool    `json:"is_self"`
	Selftext            string  `json:"selftext"`
	URLOverriddenByDest string  `json:"url_overridden_by_dest"`
	IsRedditMediaDomain bool    `json:"is_reddit_media_domain"`
	Stickied            bool    `json:"stickied"`
}

// DecodeListing parses an upstream listing into items, in upstream order.
// Pinned entries are dropped and repeated ids keep their first occurrence.
func DecodeListing(r io.Reader) ([]Item, error) {
	var l listing
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidListing, err)
	}

	items := make([]Item, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		raw := child.Data
		if raw.Stickied || raw.ID == "" {
			continue
		}
		items = append(items, raw.toItem())
	}

	return lo.UniqBy(items, func(it Item) string { return it.ID }), nil
}

func (r rawItem) toItem() Item {
	it := Item{
		ID:              r.ID,
		Title:           r.Title,
		PermalinkPath:   r.Permalink,
		OriginDomain:    r.Domain,
		CreatedAt:       int64(r.CreatedUTC),
		Score:           r.Score,
		IsSelfContained: r.IsSelf,
		BodyText:        strings.TrimSpace(html.UnescapeString(bodyPolicy.Sanitize(r.Selftext))),
	}

	if !r.IsSelf && r.Domain != "" && r.URLOverriddenByDest != "" && !r.IsRedditMediaDomain {
		it.ExternalURL = r.URLOverriddenByDest
	}

	return it
}
