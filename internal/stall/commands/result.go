package commands

import (
	"context"
	"log/slog"

	dErrors "stallworks/pkg/domain-errors"
)

// Result is the uniform outcome of a command. Reason is safe to show to the
// player verbatim when OK is false.
type Result struct {
	OK     bool
	Reason string
}

func Succeed() Result { return Result{OK: true} }

func Fail(reason string) Result { return Result{Reason: reason} }

// genericFailure hides infrastructure detail from players.
const genericFailure = "something went wrong, please try again"

// resultOf is the handler error boundary: coded domain errors surface their
// message, anything else is logged and converted to a generic failure.
func resultOf(ctx context.Context, logger *slog.Logger, kind string, err error) Result {
	if err == nil {
		return Succeed()
	}
	if dErrors.IsDomain(err) {
		return Fail(dErrors.MessageOf(err))
	}
	logger.ErrorContext(ctx, "command failed", "command", kind, "error", err)
	return Fail(genericFailure)
}
