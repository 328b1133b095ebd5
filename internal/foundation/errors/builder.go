package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of category with severity SeverityError.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{category: category, severity: SeverityError, message: message}}
}

// WrapError starts an error of category caused by err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

// WithURI records the source identifier the error is about.
func (b *ErrorBuilder) WithURI(uri string) *ErrorBuilder {
	return b.WithContext("uri", uri)
}

// Fatal marks the error as one that ends the process.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	return b.WithSeverity(SeverityFatal)
}

// Build returns the error. The builder may be reused; later changes do not
// affect errors already built.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	e.context = e.context.clone()
	return &e
}

func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

func RuntimeError(message string) *ErrorBuilder {
	return NewError(CategoryRuntime, message).Fatal()
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}

func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

// Resolution failures. None of them is fatal: a failed source only fails
// the request or pipeline entry that asked for it.

func NotFoundError(uri string) *ErrorBuilder {
	return NewError(CategoryNotFound, "source not found").WithURI(uri)
}

func ForbiddenError(uri string) *ErrorBuilder {
	return NewError(CategoryForbidden, "source outside root").WithURI(uri)
}

func ParseError(uri string) *ErrorBuilder {
	return NewError(CategoryParse, "source parse failed").WithURI(uri)
}

func ModifierError(uri string) *ErrorBuilder {
	return NewError(CategoryModifier, "modifier chain failed").WithURI(uri)
}
