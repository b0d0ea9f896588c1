package messaging

// Outbound channels. Ledger channels are request-response; the caller waits
// for the remote acknowledgment. Notification channels are fire-and-forget.
const (
	ChannelCreatedUser  = "created_user"
	ChannelUpdatedUser  = "updated_user"
	ChannelDeletedUser  = "deleted_user"
	ChannelRestoredUser = "restored_user"

	ChannelCreatedUserNotification    = "created_user_notification"
	ChannelCreatedMessageNotification = "created_message_notification"
	ChannelNotificationToOwners       = "notification_to_owners"
)

// Inbound subjects.
const (
	SubjectUpdateUser      = "update_user"
	SubjectFindUserByID    = "find_user_by_id"
	SubjectFindUserByEmail = "find_user_by_email"
)

// UpdateStreamName is the JetStream stream buffering inbound user updates.
const UpdateStreamName = "USER_UPDATES"

// UpdateConsumerName is the durable consumer shared by all instances.
const UpdateConsumerName = "userhive-backend"
