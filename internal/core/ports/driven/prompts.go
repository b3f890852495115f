package driven

// PromptStore provides access to prompt templates.
// Implementations validate placeholders when templates are loaded, so a
// malformed template fails at startup with domain.ErrConfiguration rather
// than at query time.
type PromptStore interface {
	// Load returns the template for the given name.
	Load(name string) (string, error)

	// Reload re-reads and re-validates the templates.
	Reload() error
}

// Well-known prompt names and their placeholders.
const (
	// PromptSystem is the system message sent with every request.
	// It has no placeholders.
	PromptSystem = "system"

	// PromptSearch turns a question and history into a search query.
	// Placeholders: {history}, {query}.
	PromptSearch = "search"

	// PromptChat answers a question from retrieved context.
	// Placeholders: {history}, {query}, {context}.
	PromptChat = "chat"
)

// Placeholder tokens used in prompt templates.
const (
	PlaceholderHistory = "{history}"
	PlaceholderQuery   = "{query}"
	PlaceholderContext = "{context}"
)

// RequiredPlaceholders lists the tokens each named template must contain.
func RequiredPlaceholders() map[string][]string {
	return map[string][]string{
		PromptSystem: nil,
		PromptSearch: {PlaceholderHistory, PlaceholderQuery},
		PromptChat:   {PlaceholderHistory, PlaceholderQuery, PlaceholderContext},
	}
}
