package feed

// Item is a single feed entry. Items are values and are never mutated after ingestion.
type Item struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	PermalinkPath   string `json:"permalink_path"`
	OriginDomain    string `json:"origin_domain,omitempty"`
	CreatedAt       int64  `json:"created_at"`
	Score           int    `json:"score"`
	IsSelfContained bool   `json:"is_self_contained"`
	BodyText        string `json:"body_text,omitempty"`
	ExternalURL     string `json:"external_url,omitempty"`
}

// IDs returns the ids of items in order.
func IDs(items []Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// IDSet returns the ids of items as a set.
func IDSet(items []Item) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it.ID] = struct{}{}
	}
	return set
}
