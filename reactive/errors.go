package reactive

import (
	"errors"

	"github.com/delaneyj/hue/expr"
)

// ErrInvalidExpressionPath is returned by NewWatcher when an expression string
// contains characters outside [\w.$].
var ErrInvalidExpressionPath = expr.ErrInvalidPath

// ErrUnsupportedExpression is returned by NewWatcher when the expression is
// neither a string nor a getter function.
var ErrUnsupportedExpression = errors.New("reactive: unsupported expression type")

// ErrPropertyNotConfigurable is returned when instrumenting a key of a frozen
// object, or a key that is already reactive.
var ErrPropertyNotConfigurable = errors.New("reactive: property not configurable")
