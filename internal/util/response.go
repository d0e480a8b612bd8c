package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the data payload of a successful API reply.
type Response map[string]interface{}

// Business codes. Every failure category gets its own code so callers never
// have to parse message strings.
const (
	CodeOK                 = 0
	CodeInvalidParam       = 40001
	CodeAuth               = 40101
	CodeNotFound           = 40401
	CodeInsufficientPoints = 40901
	CodeRedeemConflict     = 40902
	CodeValidation         = 42201
	CodeServerErr          = 50001
	CodeUpstream           = 50201
)

// Success writes the unified success envelope.
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error writes the unified error envelope.
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}
