package diag

// Descriptors is the complete, process-wide diagnostic taxonomy from
// spec.md §4.9, grouped as the spec groups them. Message formats use
// fmt.Sprintf verbs against the Diagnostic.Args the emitting phase supplies.
var Descriptors = map[string]Descriptor{
	// Syntax
	"parse-error":             {"parse-error", Error, "parse error: %s"},
	"unexpected-token":        {"unexpected-token", Error, "unexpected token %s, expected %s"},
	"unterminated-string":     {"unterminated-string", Error, "unterminated string literal"},
	"unmatched-open-paren":    {"unmatched-open-paren", Error, "unmatched '('"},
	"unexpected-close-paren":  {"unexpected-close-paren", Error, "unexpected ')'"},
	"unused-tree":             {"unused-tree", Warning, "tree %q is never referenced"},

	// Resolution
	"member-not-found":          {"member-not-found", Error, "no member %q on type %s"},
	"external-file-not-found":   {"external-file-not-found", Error, "imported file %q not found"},
	"ambiguous-overload":        {"ambiguous-overload", Error, "call to %q matches more than one overload"},
	"missing-interface":         {"missing-interface", Error, "type %s does not implement %s"},
	"enum-type-not-found":       {"enum-type-not-found", Error, "enum type %q not found"},
	"enum-member-not-found":     {"enum-member-not-found", Error, "enum %q has no member %q"},
	"ambiguous-member-name":     {"ambiguous-member-name", Warning, "%q resolves to %q, but a lower-priority candidate would match %q"},
	"blackboard-type-not-found": {"blackboard-type-not-found", Error, "blackboard type %q not found"},
	"blackboard-not-configured": {"blackboard-not-configured", Error, "tree has no :blackboard type; %q cannot be resolved"},

	// Type
	"type-mismatch":            {"type-mismatch", Error, "expected type %s, got %s"},
	"cannot-compare":           {"cannot-compare", Error, "cannot compare %s and %s"},
	"invalid-arithmetic":       {"invalid-arithmetic", Error, "arithmetic operator %s requires numeric operands, got %s and %s"},
	"argument-count-mismatch":  {"argument-count-mismatch", Error, "%q expects %d argument(s), got %d"},
	"argument-type-mismatch":   {"argument-type-mismatch", Error, "argument %d of %q: expected %s, got %s"},
	"bool-required":            {"bool-required", Error, "expected a Bool expression, got %s"},
	"btstatus-required":        {"btstatus-required", Error, "action %q must return BtStatus or BtNode"},
	"reactive-condition-type":  {"reactive-condition-type", Error, "reactive condition must be Bool, got %s"},

	// Structure
	"invalid-repeat-count":   {"invalid-repeat-count", Error, "repeat count must be a positive integer literal"},
	"invalid-duration":       {"invalid-duration", Error, "duration must be numeric and greater than zero"},
	"insufficient-children":  {"insufficient-children", Error, "%s requires at least %d child(ren), got %d"},
	"unreachable-node":       {"unreachable-node", Warning, "unreachable: a preceding sibling always terminates this %s"},
	"if-without-else":       {"if-without-else", Info, "if has no else branch"},

	// Defdec/macro
	"recursive-defdec":            {"recursive-defdec", Error, "recursive defdec %q"},
	"defdec-not-found":            {"defdec-not-found", Error, "no defdec named %q"},
	"defdec-param-count-mismatch": {"defdec-param-count-mismatch", Error, "defdec %q expects %d parameter(s), got %d"},
	"missing-body-placeholder":    {"missing-body-placeholder", Error, "defdec %q has no <body> placeholder"},
	"multiple-body-placeholders":  {"multiple-body-placeholders", Error, "defdec %q has more than one <body> placeholder"},
	"macro-not-found":             {"macro-not-found", Error, "no macro named %q"},
	"macro-arg-count-mismatch":    {"macro-arg-count-mismatch", Error, "macro %q expects %d argument(s), got %d"},
	"macro-depth-exceeded":        {"macro-depth-exceeded", Error, "macro expansion depth exceeded expanding %q"},
	"recursive-macro":             {"recursive-macro", Error, "recursive macro %q"},
	"invalid-macro-expansion":     {"invalid-macro-expansion", Error, "invalid expansion of macro %q"},

	// Generic types (reserved for richer context descriptors; see DESIGN.md)
	"type-argument-constraint-violation": {"type-argument-constraint-violation", Error, "type argument %s does not satisfy constraint %s"},
	"type-argument-count-mismatch":       {"type-argument-count-mismatch", Error, "%s expects %d type argument(s), got %d"},
	"open-generic-used-as-context":       {"open-generic-used-as-context", Error, "%s is an open generic type and cannot be used as a context type"},

	// Nullable
	"dereference-possibly-null": {"dereference-possibly-null", Warning, "%q may be null here"},
	"compare-null-always-true":  {"compare-null-always-true", Warning, "comparison with null is always true"},
	"compare-null-always-false": {"compare-null-always-false", Warning, "comparison with null is always false"},
	"null-check-unnecessary":    {"null-check-unnecessary", Info, "%q is never null; this check is unnecessary"},

	// Other
	"obsolete-member": {"obsolete-member", Warning, "%q is obsolete: %s"},
	"internal-error":  {"internal-error", Error, "internal error: %s"},
}
