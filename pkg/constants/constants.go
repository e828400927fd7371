package constants

const (
	AppName = "timesheet"

	ConfigName   = "config"
	ConfigFormat = "yaml"

	// EnvPrefix is prepended to every environment override,
	// e.g. TIMESHEET_MONGO_URI overrides mongo.uri.
	EnvPrefix = "TIMESHEET"

	// NotificationSubjectPrefix is the NATS subject namespace for review events.
	NotificationSubjectPrefix = "timesheet.notification"
)

// Store drivers accepted by config.store.driver.
const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)
