package errors

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
type ErrorBuilder struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	cause    error
	output   string
	context  ErrorContext
}

// NewError creates a new ErrorBuilder with the specified category and message.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityFatal, // a bundle run never recovers from a classified failure
		message:  message,
		context:  make(ErrorContext),
	}
}

// WrapError creates a new ErrorBuilder that wraps an existing error.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.cause = err
	return b
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

// WithCause sets the wrapped error.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.cause = err
	return b
}

// WithOutput attaches raw diagnostic output (e.g. captured stderr) that is
// surfaced verbatim to the user.
func (b *ErrorBuilder) WithOutput(output string) *ErrorBuilder {
	b.output = output
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// WithContextMap adds multiple context values.
func (b *ErrorBuilder) WithContextMap(ctx ErrorContext) *ErrorBuilder {
	b.context = b.context.Merge(ctx)
	return b
}

// Warning sets the severity to warning.
func (b *ErrorBuilder) Warning() *ErrorBuilder {
	return b.WithSeverity(SeverityWarning)
}

// Build creates the final ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		message:  b.message,
		cause:    b.cause,
		output:   b.output,
		context:  b.context,
	}
}

// Convenience constructors for the bundle taxonomy

// InputError creates an input error (missing project, pages or entry files).
func InputError(message string) *ErrorBuilder {
	return NewError(CategoryInput, message)
}

// ConfigError creates a configuration error.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message)
}

// ValidationError creates a validation error.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message)
}

// ExternalToolError creates an error for a failed external command.
func ExternalToolError(message string) *ErrorBuilder {
	return NewError(CategoryExternalTool, message)
}

// GitError creates a git acquisition error.
func GitError(message string) *ErrorBuilder {
	return NewError(CategoryGit, message)
}

// DerivationError creates an error for colliding or invalid derived names.
func DerivationError(message string) *ErrorBuilder {
	return NewError(CategoryDerivation, message)
}

// RewriteError creates an error for a source transform whose preconditions do not hold.
func RewriteError(message string) *ErrorBuilder {
	return NewError(CategoryRewrite, message)
}

// AssetIntegrityError creates an error for a reference to an unresolved asset.
func AssetIntegrityError(message string) *ErrorBuilder {
	return NewError(CategoryAssetIntegrity, message)
}

// FileSystemError creates a filesystem error.
func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

// InternalError creates an internal error.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message)
}
