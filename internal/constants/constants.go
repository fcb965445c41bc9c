package constants

import "time"

const (
	WinningScore          = 6
	ChallengeWinsRequired = 2
	DayLayout             = "2006-01-02"
)

const (
	StorageTimeout  = 15 * time.Second
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
)

const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	RedisChangeLogLength = 100
	RevisionListLimit    = 50
)

const (
	ShutdownTimeout = 5 * time.Second
)
