package middleware

// identity.go holds the helper that turns whatever JWTAuth stored in the
// context into a stable string identity for rate-limit keys.  Anonymous
// requests all share the "anon" bucket.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// requesterID returns a string identity for the current request.  The
// subject claim is numeric for secretary accounts, so the stored value is
// formatted rather than type-asserted.
func requesterID(c echo.Context) string {
	if v := c.Get("secretary_id"); v != nil {
		if s := fmt.Sprint(v); s != "" && s != "<nil>" {
			return s
		}
	}
	return "anon"
}
