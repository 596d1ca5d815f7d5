package window

// Record is a read-only copy of one compositor window
type Record struct {
	ID    uint64  `json:"id" yaml:"id"`
	Title *string `json:"title" yaml:"title"`
	AppID *string `json:"app_id" yaml:"app_id"`
	PID   *int32  `json:"pid" yaml:"pid"`
}

// Snapshot is the complete ordered list of windows known to the compositor
// at one point in time. A newer snapshot supersedes any older one.
type Snapshot []Record

// TitleOrEmpty returns the window title, or "" when the compositor sent none
func (r Record) TitleOrEmpty() string {
	if r.Title == nil {
		return ""
	}
	return *r.Title
}

// AppIDOrEmpty returns the app id, or "" when the compositor sent none
func (r Record) AppIDOrEmpty() string {
	if r.AppID == nil {
		return ""
	}
	return *r.AppID
}

// ForegroundPID returns the pid as the scheduler expects it. ok is false when
// the window has no owning process or the pid cannot be a real process id.
func (r Record) ForegroundPID() (pid uint32, ok bool) {
	if r.PID == nil || *r.PID <= 0 {
		return 0, false
	}
	return uint32(*r.PID), true
}
