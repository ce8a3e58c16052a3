package mw

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wear-and-tear-backend/internal/ixapi"
)

// APIAuth only lets requests through that carry the platform headers of
// creds and its bearer token.
func APIAuth(creds ixapi.Credentials) gin.HandlerFunc {
	return func(c *gin.Context) {
		for header, want := range map[string]string{
			ixapi.HeaderApplication: creds.AppID,
			ixapi.HeaderVersion:     creds.APIVersion,
			ixapi.HeaderCompany:     creds.CompanyID,
		} {
			if c.GetHeader(header) != want {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid " + header + " header"})
				return
			}
		}

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || creds.AccessToken == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(creds.AccessToken)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
			return
		}
		c.Next()
	}
}
