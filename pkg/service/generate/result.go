package generate

// Result carries either a generated value or the error that prevented it.
// Generation is cosmetic, so callers map failures to a fallback with
// OrElse instead of aborting their flow.
type Result[T any] struct {
	Value T
	Err   error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// OK reports whether the value was generated
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// OrElse returns the value, or fallback when generation failed
func (r Result[T]) OrElse(fallback T) T {
	if r.Err != nil {
		return fallback
	}
	return r.Value
}
