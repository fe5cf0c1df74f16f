package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/titipin/titip-backend/internal/http/handlers/common"
	"github.com/titipin/titip-backend/internal/http/response"
	"github.com/titipin/titip-backend/internal/pkg/apperror"
)

// userFromContext отвечает 401, если пользователь не установлен AuthMiddleware.
func userFromContext(c *gin.Context) (uuid.UUID, bool) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		response.Unauthorized(c)
		return uuid.Nil, false
	}
	return userID, true
}

func idParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := common.ParseUUIDParam(c, name)
	if err != nil {
		response.BadRequest(c, err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "некорректное тело запроса: "+err.Error())
		return false
	}
	return true
}

// readUpload читает файл из multipart поля file, не больше maxBytes.
func readUpload(c *gin.Context, maxBytes int64) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "файл обязателен (поле file)")
		return nil, false
	}
	if fh.Size > maxBytes {
		response.Abort(c, http.StatusBadRequest, apperror.ErrCodeValidation, "файл слишком большой")
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "не удалось прочитать файл")
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		response.BadRequest(c, "не удалось прочитать файл")
		return nil, false
	}
	if int64(len(data)) > maxBytes {
		response.Abort(c, http.StatusBadRequest, apperror.ErrCodeValidation, "файл слишком большой")
		return nil, false
	}
	return data, true
}
