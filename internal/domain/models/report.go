package models

import "time"

// DailyQualityReport is the aggregated disposition summary generated once a
// day, stored in MongoDB and exported for quality oversight.
type DailyQualityReport struct {
	Date                 time.Time `bson:"date" json:"date"`
	GRNsVerified         int       `bson:"grns_verified" json:"grns_verified"`
	SamplesCreated       int       `bson:"samples_created" json:"samples_created"`
	SamplesCompleted     int       `bson:"samples_completed" json:"samples_completed"`
	ResultsRecorded      int       `bson:"results_recorded" json:"results_recorded"`
	ResultsFailed        int       `bson:"results_failed" json:"results_failed"`
	ReleasesReleased     int       `bson:"releases_released" json:"releases_released"`
	ReleasesHeld         int       `bson:"releases_held" json:"releases_held"`
	ReleasesRejected     int       `bson:"releases_rejected" json:"releases_rejected"`
	DeviationsOpen       int       `bson:"deviations_open" json:"deviations_open"`
	PendingNotifications int       `bson:"pending_notifications" json:"pending_notifications"`
	CreatedAt            time.Time `bson:"created_at" json:"created_at"`
}
