// Package response renders the tagged result shape shared by every HTTP handler:
// {"success": true, ...payload} on success and {"error": msg, "details": ...} on failure.
package response

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/i18n"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/statemachine"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func OK(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// Fail maps err to a response. Domain errors keep their status and localised
// message; anything else is logged and reported as "Failed to <action>".
func Fail(c *gin.Context, log logger.ZapLogger, err error, action string) {
	if appErr, ok := apperror.As(err); ok {
		body := gin.H{"error": Message(c, appErr)}
		if appErr.Details != nil {
			body["details"] = appErr.Details
		}
		c.JSON(appErr.Code, body)
		return
	}

	if errors.Is(err, statemachine.ErrInvalidTransition) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	log.Error("failed to "+action, zap.Error(err), zap.String("path", c.FullPath()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
}

// BadRequest reports a malformed request body.
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
}

// Message localises appErr using the request's Accept-Language header.
func Message(c *gin.Context, appErr *apperror.Error) string {
	return i18n.Localize(c.GetHeader("Accept-Language"), appErr.MessageID, appErr.Message, appErr.Data)
}

// Page reads page/page_size query params with defaults 1 and 20, capped at 100.
func Page(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

// Optional turns an empty query or path value into nil.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Meta describes one page of a listing.
func Meta(page, pageSize, total int) gin.H {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return gin.H{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": totalPages,
		"has_more":    total > page*pageSize,
	}
}
