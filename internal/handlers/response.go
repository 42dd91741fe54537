package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-authgate/tokenserver/internal/oauth"
	"github.com/go-authgate/tokenserver/internal/token"

	"github.com/gin-gonic/gin"
)

const basicRealm = "OAuth"

// writeTokenResponse sends a successful token response. The body is encoded
// through token.Response so field order is stable.
func writeTokenResponse(c *gin.Context, resp *token.Response) {
	body, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[Token] Failed to encode token response: %v", err)
		writeOAuthError(c, oauth.ServerError(""), true, false)
		return
	}

	c.Header("Pragma", "no-cache")
	c.Header("Cache-Control", "no-store, private")
	c.Data(http.StatusOK, "application/json; charset=UTF-8", body)
}

// writeOAuthError renders err as an RFC 6749 §5.2 error body. Errors that are
// not *oauth.Error become server_error. A 401 gets a Basic challenge when the
// client authenticated with Basic.
func writeOAuthError(c *gin.Context, err error, hideHints, usedBasic bool) {
	oe, ok := oauth.As(err)
	if !ok {
		log.Printf("[Token] Unexpected error: %v", err)
		oe = oauth.ServerError("")
	}

	body, err := json.Marshal(oe.Payload(!hideHints))
	if err != nil {
		log.Printf("[Token] Failed to encode error response: %v", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Header("Cache-Control", "no-cache, private")
	if oe.Status == http.StatusUnauthorized && usedBasic {
		c.Header("WWW-Authenticate", `Basic realm="`+basicRealm+`"`)
	}
	c.Data(oe.Status, "application/json", body)
}
