package api

import (
	"io"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/miesc-dev/miesc/pkg/aocerrors"
)

// httpStatusFor maps an aocerrors.Kind to the REST status code it surfaces
// as (spec.md §7's closed Kind set has no HTTP-layer mapping of its own;
// this is the boundary's own classification, mirroring the teacher's
// mapServiceError).
func httpStatusFor(kind aocerrors.Kind) int {
	switch kind {
	case aocerrors.KindInputInvalid, aocerrors.KindRegistryConflict:
		return http.StatusBadRequest
	case aocerrors.KindToolUnavailable:
		return http.StatusServiceUnavailable
	case aocerrors.KindAuditCancelled:
		return http.StatusConflict
	case aocerrors.KindToolTimeout, aocerrors.KindAuditPartialTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// JSON-RPC 2.0 standard error codes (https://www.jsonrpc.org/specification),
// plus one server-defined range member for domain errors that don't fit the
// standard codes.
const (
	rpcCodeInvalidParams = -32602
	rpcCodeInternal      = -32603
	rpcCodeDomainError   = -32000
)

// rpcCodeFor maps an aocerrors.Kind to a JSON-RPC error code.
func rpcCodeFor(kind aocerrors.Kind) int {
	switch kind {
	case aocerrors.KindInputInvalid, aocerrors.KindRegistryConflict:
		return rpcCodeInvalidParams
	case aocerrors.KindInternal:
		return rpcCodeInternal
	default:
		return rpcCodeDomainError
	}
}

// restError writes err as a REST error body, mapping its aocerrors.Kind to
// an HTTP status rather than always answering 200 as the JSON-RPC envelope
// does.
func restError(c *echo.Context, err error) error {
	kind := aocerrors.KindOf(err)
	return c.JSON(httpStatusFor(kind), map[string]string{"error": err.Error()})
}

// readAll reads and returns the full request body.
func readAll(c *echo.Context) ([]byte, error) {
	return io.ReadAll(c.Request().Body)
}
