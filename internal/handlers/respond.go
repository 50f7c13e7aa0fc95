// Package handlers exposes the fulfillment pipeline over HTTP.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront_backend/internal/apperr"
)

// respondError maps a domain error to the structured error body. Causes
// stay in the logs; clients only see the kind and the safe message.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	status := apperr.HTTPStatus(err)
	entry := log.WithFields(logrus.Fields{
		"path":   c.FullPath(),
		"status": status,
	})
	if status >= 500 {
		entry.WithError(err).Error("request failed")
	} else {
		entry.WithError(err).Debug("request rejected")
	}
	c.JSON(status, gin.H{"error": gin.H{
		"kind":    apperr.KindOf(err),
		"message": apperr.MessageOf(err),
	}})
}
