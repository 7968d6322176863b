package api

import (
	"github.com/fairwaylink/messaging/pkg/internal/http/exts"
	"github.com/fairwaylink/messaging/pkg/internal/models"
	"github.com/fairwaylink/messaging/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func listThreads(c *fiber.Ctx) error {
	userId := currentUserId(c)
	threadType := models.ThreadType(c.Query("type"))

	threads, err := chat.ListThreadsForUser(c.UserContext(), userId, threadType)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(threads)
}

func listClubThreads(c *fiber.Ctx) error {
	userId := currentUserId(c)
	clubId := c.Params("clubId")

	threads, err := chat.ListThreadsForClub(c.UserContext(), userId, clubId)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(threads)
}

func ensureDirectThread(c *fiber.Ctx) error {
	userId := currentUserId(c)

	var data struct {
		GolferUserID string `json:"golfer_user_id" validate:"required"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	thread, err := chat.EnsureDirectThread(c.UserContext(), userId, data.GolferUserID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(thread)
}

func createGroupThread(c *fiber.Ctx) error {
	userId := currentUserId(c)

	var data services.CreateGroupInput
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	thread, err := chat.CreateGroup(c.UserContext(), userId, data)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(thread)
}

func addGroupMembers(c *fiber.Ctx) error {
	userId := currentUserId(c)
	threadId := c.Params("threadId")

	var data struct {
		MemberUserIDs []string `json:"member_user_ids" validate:"required,min=1"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	thread, err := chat.AddGroupMembers(c.UserContext(), userId, threadId, data.MemberUserIDs)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(thread)
}

func removeGroupMember(c *fiber.Ctx) error {
	userId := currentUserId(c)
	threadId := c.Params("threadId")
	memberId := c.Params("memberId")

	thread, err := chat.RemoveGroupMember(c.UserContext(), userId, threadId, memberId)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(thread)
}
