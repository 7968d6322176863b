package api

import (
	"strings"

	"github.com/fairwaylink/messaging/pkg/internal/auth"
	"github.com/fairwaylink/messaging/pkg/internal/gateway"
	"github.com/fairwaylink/messaging/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

var (
	chat *services.Chat
	gw   *gateway.Gateway
)

func MapAPIs(app *fiber.App, srv *services.Chat, realtime *gateway.Gateway) {
	chat = srv
	gw = realtime

	api := app.Group("/api").Name("API")
	{
		threads := api.Group("/chat/threads", authMiddleware).Name("Threads API")
		{
			threads.Get("/", listThreads)
			threads.Get("/club/:clubId", listClubThreads)
			threads.Get("/:threadId/messages", listThreadMessages)
			threads.Post("/direct", ensureDirectThread)
			threads.Post("/direct/messages", sendDirectMessage)
			threads.Post("/group", createGroupThread)
			threads.Post("/:threadId/messages", sendThreadMessage)
			threads.Post("/:threadId/members", addGroupMembers)
			threads.Delete("/:threadId/members/:memberId", removeGroupMember)
		}

		api.Patch("/chat/messages/:messageId/reaction", authMiddleware, reactToMessage)

		api.Get("/ws", gw.AuthenticateUpgrade, gw.Handler())
	}
}

func authMiddleware(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if len(token) == 0 {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication token required")
	}

	claims, err := auth.VerifyAccessToken(token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication failed")
	}

	c.Locals("user_id", claims.UserID)
	return c.Next()
}

func currentUserId(c *fiber.Ctx) string {
	return c.Locals("user_id").(string)
}

// mapServiceError keeps one status translation for every handler; anything the
// chat service did not classify surfaces as a bad request.
func mapServiceError(err error) error {
	if kind, ok := services.KindOf(err); ok {
		switch kind {
		case services.KindNotFound:
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		case services.KindForbidden:
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}
	}
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}
