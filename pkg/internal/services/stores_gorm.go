package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fairwaylink/messaging/pkg/internal/models"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormThreadStore struct {
	DB *gorm.DB
}

func (v GormThreadStore) GetThread(ctx context.Context, id string) (models.ChatThread, error) {
	var thread models.ChatThread
	if err := v.DB.WithContext(ctx).Where("id = ?", id).
		Preload("Members").
		First(&thread).Error; err != nil {
		return thread, wrapMissing(err)
	}
	return thread, nil
}

func (v GormThreadStore) GetDirectThread(ctx context.Context, directKey string) (models.ChatThread, error) {
	var thread models.ChatThread
	if err := v.DB.WithContext(ctx).
		Where("type = ? AND direct_key = ?", models.ThreadTypeDirect, directKey).
		Preload("Members").
		First(&thread).Error; err != nil {
		return thread, wrapMissing(err)
	}
	return thread, nil
}

func (v GormThreadStore) CreateThread(ctx context.Context, thread *models.ChatThread) error {
	return v.DB.WithContext(ctx).Create(thread).Error
}

func (v GormThreadStore) AddMembers(ctx context.Context, id string, userIds []string) (models.ChatThread, error) {
	thread, err := v.GetThread(ctx, id)
	if err != nil {
		return thread, err
	}

	rows := lo.Map(lo.Uniq(userIds), func(userId string, _ int) models.ThreadMember {
		return models.ThreadMember{ThreadID: id, UserID: userId}
	})
	if len(rows) > 0 {
		if err := v.DB.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&rows).Error; err != nil {
			return thread, err
		}
	}

	return v.GetThread(ctx, id)
}

func (v GormThreadStore) RemoveMember(ctx context.Context, id string, userId string) (models.ChatThread, error) {
	if _, err := v.GetThread(ctx, id); err != nil {
		return models.ChatThread{}, err
	}

	if err := v.DB.WithContext(ctx).Unscoped().
		Where("thread_id = ? AND user_id = ?", id, userId).
		Delete(&models.ThreadMember{}).Error; err != nil {
		return models.ChatThread{}, err
	}

	return v.GetThread(ctx, id)
}

func (v GormThreadStore) TouchThread(ctx context.Context, id string) error {
	return v.DB.WithContext(ctx).Model(&models.ChatThread{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}

func (v GormThreadStore) ListThreadsForUser(ctx context.Context, userId string, threadType models.ThreadType) ([]models.ChatThread, error) {
	prefix := viper.GetString("database.prefix")

	var threads []models.ChatThread
	tx := v.DB.WithContext(ctx).
		Joins(fmt.Sprintf(
			"JOIN %sthread_members AS tm ON tm.thread_id = %schat_threads.id AND tm.user_id = ? AND tm.deleted_at IS NULL",
			prefix, prefix,
		), userId).
		Order(fmt.Sprintf("%schat_threads.updated_at DESC", prefix)).
		Preload("Members")
	if len(threadType) > 0 {
		tx = tx.Where("type = ?", threadType)
	}

	if err := tx.Find(&threads).Error; err != nil {
		return threads, err
	}
	return threads, nil
}

func (v GormThreadStore) ListGroupsForClub(ctx context.Context, clubId string) ([]models.ChatThread, error) {
	var threads []models.ChatThread
	if err := v.DB.WithContext(ctx).
		Where("type = ? AND club_id = ?", models.ThreadTypeGroup, clubId).
		Order("updated_at DESC").
		Preload("Members").
		Find(&threads).Error; err != nil {
		return threads, err
	}
	return threads, nil
}

type GormMessageStore struct {
	DB *gorm.DB
}

func (v GormMessageStore) GetMessage(ctx context.Context, id string) (models.ChatMessage, error) {
	var message models.ChatMessage
	if err := v.DB.WithContext(ctx).Where("id = ?", id).
		Preload("Reactions").
		First(&message).Error; err != nil {
		return message, wrapMissing(err)
	}
	return message, nil
}

func (v GormMessageStore) CreateMessage(ctx context.Context, message *models.ChatMessage) error {
	return v.DB.WithContext(ctx).Create(message).Error
}

func (v GormMessageStore) ListMessages(ctx context.Context, threadId string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	if err := v.DB.WithContext(ctx).
		Where("thread_id = ?", threadId).
		Order("created_at ASC").
		Preload("Reactions").
		Find(&messages).Error; err != nil {
		return messages, err
	}
	return messages, nil
}

func (v GormMessageStore) LastMessage(ctx context.Context, threadId string) (*models.ChatMessage, error) {
	var message models.ChatMessage
	err := v.DB.WithContext(ctx).
		Where("thread_id = ?", threadId).
		Order("created_at DESC").
		Preload("Reactions").
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

// ToggleReaction runs as one transaction so two rapid toggles by the same user
// cannot interleave a read-modify-write. Reaction rows are hard-deleted; a
// soft-deleted row would keep occupying the per-user unique index.
func (v GormMessageStore) ToggleReaction(ctx context.Context, messageId, userId, emoji string) (ReactionAction, []models.MessageReaction, error) {
	action := ReactionSet
	err := v.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().
			Where("message_id = ? AND user_id = ? AND emoji = ?", messageId, userId, emoji).
			Delete(&models.MessageReaction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			action = ReactionRemoved
			return nil
		}

		reaction := models.MessageReaction{
			MessageID: messageId,
			UserID:    userId,
			Emoji:     emoji,
			ReactedAt: time.Now(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"emoji", "reacted_at"}),
		}).Create(&reaction).Error
	})
	if err != nil {
		return action, nil, err
	}

	var reactions []models.MessageReaction
	if err := v.DB.WithContext(ctx).
		Where("message_id = ?", messageId).
		Order("reacted_at ASC").
		Find(&reactions).Error; err != nil {
		return action, nil, err
	}
	return action, reactions, nil
}

func wrapMissing(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordMissing
	}
	return err
}
