package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/titipin/titip-backend/internal/http/response"
	"github.com/titipin/titip-backend/internal/logger"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

// ErrorHandler логирует ошибки запроса и отвечает за хэндлеры,
// которые положили ошибку в c.Errors, но ничего не записали.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		if logger.Log != nil {
			entry := logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"code":   apperror.CodeOf(err),
				"path":   c.FullPath(),
				"method": c.Request.Method,
				"status": c.Writer.Status(),
			})
			if c.Writer.Status() >= 500 || !c.Writer.Written() {
				entry.Error("ошибка запроса")
			} else {
				entry.Debug("ошибка запроса")
			}
		}

		if !c.Writer.Written() {
			response.Error(c, err)
		}
	}
}
