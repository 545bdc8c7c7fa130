package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NewRelicAttributes returns middleware that enriches the active New Relic
// transaction with request attributes. Runs after nrgin and the auth
// middleware so both the transaction and the account id exist.
func NewRelicAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		txn := nrgin.Transaction(c)
		if txn == nil {
			c.Next()
			return
		}

		if acct := AccountID(c); acct != "" {
			txn.AddAttribute("account.id", acct)
		}

		c.Next()

		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
