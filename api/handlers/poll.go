package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	mailerrors "github.com/suaiden-dev/matriculausa-mvp-sub011/internal/errors"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/tracing"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/utils"
)

const StatusCompleted = "completed"

// PollMailbox runs one ingestion invocation for the caller's mailbox named in ?mailbox=.
func PollMailbox(connections interfaces.MailboxConnectionRepository, poller interfaces.MailboxPoller, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "PollMailbox", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		mailbox := utils.NormalizeEmail(c.Query("mailbox"))
		if mailbox == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mailbox query parameter is required"})
			return
		}
		tracing.TagMailbox(span, mailbox)

		if err := utils.ValidateUserId(ctx); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		userId := utils.GetUserIdFromContext(ctx)

		conn, err := connections.GetByUserAndMailbox(ctx, userId, mailbox)
		if err != nil {
			tracing.TraceErr(span, err)
			log.Errorf("Failed to load connection for %s: %v", mailbox, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if conn == nil {
			other, err := connections.GetByMailbox(ctx, mailbox)
			if err != nil {
				tracing.TraceErr(span, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			if other != nil {
				tracing.TraceErr(span, mailerrors.ErrMailboxNotOwned)
				c.JSON(http.StatusUnauthorized, gin.H{"error": mailerrors.ErrMailboxNotOwned.Error()})
				return
			}
			c.JSON(http.StatusNotFound, gin.H{"error": mailerrors.ErrConnectionNotFound.Error()})
			return
		}

		ctx = utils.SetMailboxInContext(ctx, userId, mailbox)
		result, err := poller.Run(ctx, conn)
		if err != nil {
			tracing.TraceErr(span, err)
			if mailerrors.IsRefreshError(err) {
				log.Warnf("Credential refresh failed for %s: %v", mailbox, err)
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Mailbox credential could not be refreshed"})
				return
			}
			log.Errorf("Polling %s failed: %v", mailbox, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, dto.PollResponse{
			Status:    StatusCompleted,
			Outcome:   result.Outcome.String(),
			MessageId: result.MessageId,
		})
	}
}
