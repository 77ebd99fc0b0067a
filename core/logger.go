package core

// Logger is any service that can log app events.
// args may carry errors and extra data (map[string]interface{}) for the underlying service.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Metrics records domain counters. Implementations must be safe for concurrent use.
type Metrics interface {
	ActivityLogged(kind string)
	AttendanceRecorded(present, absent int)
}
