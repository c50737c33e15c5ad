package ipc

import "time"

// StartRequest starts the engine.
type StartRequest struct{}

// StartResponse indicates whether the engine was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the engine.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// RootStatus describes one watched root.
type RootStatus struct {
	Root  string `json:"root"`
	State string `json:"state"`
}

// StatusResponse represents combined daemon/engine status information.
type StatusResponse struct {
	Running        bool         `json:"running"`
	PID            int          `json:"pid"`
	StartedAt      time.Time    `json:"started_at"`
	Roots          []RootStatus `json:"roots"`
	PendingPaths   int          `json:"pending_paths"`
	MovesCompleted uint64       `json:"moves_completed"`
	DroppedStatus  uint64       `json:"dropped_status"`
	DecisionDBPath string       `json:"decision_db_path"`
	LockPath       string       `json:"lock_path"`
	ConfigPath     string       `json:"config_path"`
}

// ReloadRequest re-reads the configuration file.
type ReloadRequest struct{}

// ReloadResponse indicates reload result.
type ReloadResponse struct {
	Reloaded bool   `json:"reloaded"`
	Message  string `json:"message"`
}

// Decision mirrors a stored folder-move decision for IPC callers.
type Decision struct {
	ID           string    `json:"id"`
	OriginalPath string    `json:"original_path"`
	NewPath      string    `json:"new_path"`
	Category     string    `json:"category"`
	Subcategory  string    `json:"subcategory"`
	State        string    `json:"state"`
	CreatedAt    time.Time `json:"created_at"`
}

// DecisionListRequest lists recent folder decisions.
type DecisionListRequest struct {
	Limit int `json:"limit"`
}

// DecisionListResponse contains recent decisions, newest first.
type DecisionListResponse struct {
	Decisions []Decision `json:"decisions"`
}

// DecisionUndoRequest reverses a folder move by decision id.
type DecisionUndoRequest struct {
	ID string `json:"id"`
}

// DecisionUndoResponse carries the updated decision.
type DecisionUndoResponse struct {
	Decision Decision `json:"decision"`
}

// DecisionIgnoreRequest suppresses a decision's original location.
type DecisionIgnoreRequest struct {
	ID string `json:"id"`
}

// DecisionIgnoreResponse carries the updated decision.
type DecisionIgnoreResponse struct {
	Decision Decision `json:"decision"`
}

// StatsRequest fetches aggregate move statistics.
type StatsRequest struct{}

// DailyCount pairs a day with its move count.
type DailyCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// StatsResponse carries the aggregate view.
type StatsResponse struct {
	TodayCount      int            `json:"today_count"`
	TotalCount      int            `json:"total_count"`
	TotalBytes      int64          `json:"total_bytes"`
	TodayByCategory map[string]int `json:"today_by_category"`
	Week            []DailyCount   `json:"week"`
}

// RecentRequest lists recently recorded moves.
type RecentRequest struct {
	Limit int `json:"limit"`
}

// Operation mirrors one recorded move for IPC callers.
type Operation struct {
	SourcePath      string    `json:"source_path"`
	DestinationPath string    `json:"destination_path"`
	Category        string    `json:"category"`
	Subcategory     string    `json:"subcategory"`
	IsFolder        bool      `json:"is_folder"`
	SizeBytes       int64     `json:"size_bytes"`
	MovedAt         time.Time `json:"moved_at"`
}

// RecentResponse contains recent operations, newest first.
type RecentResponse struct {
	Operations []Operation `json:"operations"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the notification test result.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
