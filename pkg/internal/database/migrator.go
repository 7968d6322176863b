package database

import (
	"github.com/fairwaylink/messaging/pkg/internal/models"
	"gorm.io/gorm"
)

var AutoMaintainRange = []any{
	&models.Account{},
	&models.SocialFollow{},
	&models.Club{},
	&models.ClubMember{},
	&models.ChatThread{},
	&models.ThreadMember{},
	&models.ChatMessage{},
	&models.MessageReaction{},
}

func RunMigration(source *gorm.DB) error {
	if err := source.AutoMigrate(AutoMaintainRange...); err != nil {
		return err
	}

	return nil
}
