package grammar

type SemanticError struct {
	message string
}

func newSemanticError(message string) *SemanticError {
	return &SemanticError{
		message: message,
	}
}

func (e *SemanticError) Error() string {
	return e.message
}

var (
	semErrNoGrammarName     = newSemanticError("a grammar needs a name")
	semErrNoRule            = newSemanticError("a grammar needs at least one rule")
	semErrDuplicateRule     = newSemanticError("duplicate rule")
	semErrUndefinedRule     = newSemanticError("undefined rule reference")
	semErrNoAlternative     = newSemanticError("a rule needs at least one alternative")
	semErrEmptyAlternative  = newSemanticError("an alternative needs at least one element")
	semErrInvalidTokenRule  = newSemanticError("a token rule can contain only literals, classes, and their combinations")
	semErrNullableToken     = newSemanticError("a token rule must not match the empty string")
	semErrSkipOnSyntaxRule  = newSemanticError("only a token rule can have the skip directive")
	semErrSkippedTokenUsed  = newSemanticError("a token rule used in alternatives cannot be skipped")
	semErrClassInTokenLayer = newSemanticError("a syntax rule cannot contain a class when the grammar has a token layer")
	semErrTypeUnification   = newSemanticError("alternatives must produce the same result type")
	semErrNoBaseCase        = newSemanticError("a left-recursive rule needs a non-recursive alternative in its recursion group")
	semErrEmptyClass        = newSemanticError("a class needs at least one code point range")
	semErrInvalidRange      = newSemanticError("a code point range must satisfy from <= to")
)
