package suggestions

// Post is one generated draft. All three fields are always present when a
// Post is emitted; hashtags carry no leading '#'.
type Post struct {
	Content      string   `json:"content"`
	Hashtags     []string `json:"hashtags"`
	CallToAction string   `json:"callToAction"`
}

// Event is one entry in a suggestion stream. Exactly one of Post, Warning,
// Error is set. Category is the profile category (category mode) or the
// topic phrase (topic mode); it is empty only on a stream-fatal error
// emitted before any item is processed.
type Event struct {
	Category string `json:"category,omitempty"`
	Post     *Post  `json:"post,omitempty"`
	Warning  string `json:"warning,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Mode selects the item source for one pipeline run.
type Mode string

const (
	// ModeCategories iterates the three fixed profile buckets.
	ModeCategories Mode = "categories"
	// ModeTopics iterates nine planned topics derived from the profile.
	ModeTopics Mode = "topics"
)

// ParseMode maps a request parameter to a Mode, defaulting to categories.
func ParseMode(raw string) Mode {
	if raw == string(ModeTopics) {
		return ModeTopics
	}
	return ModeCategories
}

// Categories are processed in declaration order; stream event order matches.
var Categories = []string{"plannedContent", "reactiveContent", "companyContent"}
