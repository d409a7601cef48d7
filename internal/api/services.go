package api

// Services bundles one implementation of every resource API over a shared
// client.
type Services struct {
	Auth          AuthAPI
	Users         UsersAPI
	Activities    ActivitiesAPI
	Participants  ParticipantsAPI
	Messages      MessagesAPI
	Notifications NotificationsAPI
	Reviews       ReviewsAPI
	Reports       ReportsAPI
	Photos        PhotosAPI
	Categories    CategoriesAPI
	CrashReports  CrashReportsAPI
}

func NewServices(client *Client) *Services {
	return &Services{
		Auth:          NewAuthService(client),
		Users:         NewUserService(client),
		Activities:    NewActivityService(client),
		Participants:  NewParticipantService(client),
		Messages:      NewMessageService(client),
		Notifications: NewNotificationService(client),
		Reviews:       NewReviewService(client),
		Reports:       NewReportService(client),
		Photos:        NewPhotoService(client),
		Categories:    NewCategoryService(client),
		CrashReports:  NewCrashReportService(client),
	}
}
