package database

// schema is applied in order by Migrate.
// attendance rows follow their student on delete.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		firstName TEXT NOT NULL,
		lastName TEXT NOT NULL,
		studentId TEXT UNIQUE NOT NULL,
		grade TEXT NOT NULL,
		section TEXT NOT NULL,
		gender TEXT NOT NULL,
		dateOfBirth TEXT NOT NULL,
		createdAt TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		studentId TEXT NOT NULL,
		date TEXT NOT NULL,
		isPresent INTEGER NOT NULL,
		FOREIGN KEY (studentId) REFERENCES students (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		timestamp TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_students_class ON students (grade, section)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_student_date ON attendance (studentId, date)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_timestamp ON activities (timestamp)`,
}
