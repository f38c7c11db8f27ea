package services

import (
	"taskbot/backend/internal/notify"

	"gorm.io/gorm"
)

// Services bundles every service implementation over one shared database
// handle and one notification sink.
type Services struct {
	Users     UserDirectory
	Tasks     TaskService
	Lists     ListService
	Sharing   SharingService
	Dashboard DashboardService
}

func NewServices(db *gorm.DB, sink notify.Sink, whitelistedIDs []int64) *Services {
	return &Services{
		Users:     NewUserDirectory(db, whitelistedIDs),
		Tasks:     NewTaskService(db),
		Lists:     NewListService(db),
		Sharing:   NewSharingService(db, sink),
		Dashboard: NewDashboardService(db),
	}
}
