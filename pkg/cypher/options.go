package cypher

// QueryOptions controls one ExecuteQuery call: match/action/evaluation
// behaviour named in spec.md §6. Doc-commented and YAML-decodable the
// way the teacher's pkg/config documents and loads Config, so a host can
// keep a named option profile in a file instead of repeating flags.
//
// Example:
//
//	opts := cypher.DefaultQueryOptions()
//	opts.MaxMatches = 100
//	result := cypher.ExecuteQuery(g, "MATCH (p:Person) RETURN p", opts)
type QueryOptions struct {
	// MaxMatches caps the number of final binding sets kept before
	// action execution and projection. Zero means unbounded.
	MaxMatches int `yaml:"maxMatches"`

	// ValidateBeforeExecute pre-validates every action in a binding's
	// action list, in order, bailing out on the first validation
	// failure before any action executes.
	ValidateBeforeExecute bool `yaml:"validateBeforeExecute"`

	// RollbackOnFailure undoes already-applied actions, in reverse
	// order, when a later action in the same list fails.
	RollbackOnFailure bool `yaml:"rollbackOnFailure"`

	// ContinueOnFailure keeps running the remaining actions in a list
	// past a failed one; overall success is the conjunction of all
	// per-action results.
	ContinueOnFailure bool `yaml:"continueOnFailure"`

	// EnableTypeCoercion relaxes property/expression comparisons to
	// coerce numeric-looking strings to numbers, and 1/0/"true"/"false"
	// to booleans, before comparing.
	EnableTypeCoercion bool `yaml:"enableTypeCoercion"`

	// Lexer controls tokenization (keyword case sensitivity, whether to
	// keep whitespace/comment tokens).
	Lexer LexerOptions `yaml:"lexer"`
}

// DefaultQueryOptions returns spec.md §6's documented defaults:
// validate-before-execute and rollback-on-failure on, continue-on-failure
// and type coercion off, case-insensitive keywords.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		ValidateBeforeExecute: true,
		RollbackOnFailure:     true,
		Lexer:                 DefaultLexerOptions(),
	}
}
