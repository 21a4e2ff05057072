package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/i18n"
)

// HeaderLocale overrides Accept-Language.
const HeaderLocale = "X-Locale"

// Locale negotiates the request language from X-Locale, the lang query
// parameter or Accept-Language, in that order. The authenticated user's
// token locale wins over Accept-Language but not over explicit choices.
func Locale(bundle *i18n.Bundle) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var locale string
		switch {
		case c.GetHeader(HeaderLocale) != "":
			locale = bundle.Normalize(c.GetHeader(HeaderLocale))
		case c.Query("lang") != "":
			locale = bundle.Normalize(c.Query("lang"))
		case appctx.GetUser(ctx) != nil && appctx.GetUser(ctx).Locale != "":
			locale = bundle.Normalize(appctx.GetUser(ctx).Locale)
		default:
			locale = bundle.Negotiate(c.GetHeader("Accept-Language"))
		}

		c.Request = c.Request.WithContext(appctx.WithLocale(ctx, locale))
		c.Set("locale", locale)
		c.Header("Content-Language", locale)
		c.Next()
	}
}
