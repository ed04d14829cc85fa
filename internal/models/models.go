package models

import "time"

// Role codes as the backend reports them.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleUser       = "user"
)

// Event status values accepted by the status endpoint.
const (
	EventUpcoming  = "upcoming"
	EventOngoing   = "ongoing"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
)

func ValidEventStatus(status string) bool {
	switch status {
	case EventUpcoming, EventOngoing, EventCompleted, EventCancelled:
		return true
	}
	return false
}

// UserFile is a file attached to a user. Size and type are server-reported;
// the client only displays them.
type UserFile struct {
	ID         int    `json:"id"`
	UserID     int    `json:"user_id"`
	FileName   string `json:"file_name"`
	FilePath   string `json:"file_path"`
	FileURL    string `json:"file_url"`
	FileType   string `json:"file_type"`
	FileSize   int64  `json:"file_size"`
	UploadedBy string `json:"uploaded_by"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// User is the profile record as the backend serializes it.
type User struct {
	ID                string     `json:"id"`
	FirstName         *string    `json:"first_name"`
	LastName          *string    `json:"last_name"`
	MiddleInitial     *string    `json:"middle_initial"`
	ContactNumber     *string    `json:"contact_number"`
	Email             *string    `json:"email"`
	ProfileImage      *string    `json:"profile_image"`
	UserFiles         []UserFile `json:"user_files"`
	Role              string     `json:"role"`
	EmailVerifiedAt   *string    `json:"email_verified_at"`
	IsActive          bool       `json:"is_active"`
	Title             *string    `json:"title"`
	MobileNumber      *string    `json:"mobile_number"`
	HomeAddress       *string    `json:"home_address"`
	ChurchName        *string    `json:"church_name"`
	ChurchAddress     *string    `json:"church_address"`
	WorkingOrStudent  *string    `json:"working_or_student"`
	VocationSphere    *string    `json:"vocation_work_sphere"`
	ModeOfPayment     *string    `json:"mode_of_payment"`
	ProofOfPaymentURL *string    `json:"proof_of_payment_url"`
	Notes             *string    `json:"notes"`
	GroupID           *int       `json:"group_id"`
	ReferenceNumber   *string    `json:"reference_number"`
	Reconciled        bool       `json:"reconciled"`
	FinanceChecked    bool       `json:"finance_checked"`
	EmailConfirmed    bool       `json:"email_confirmed"`
	Attendance        bool       `json:"attendance"`
	IDIssued          bool       `json:"id_issued"`
	BookGiven         bool       `json:"book_given"`
	CreatedAt         string     `json:"created_at"`
	UpdatedAt         string     `json:"updated_at"`
	DeletedAt         *string    `json:"deleted_at"`
}

func (u *User) FullName() string {
	name := ""
	if u.FirstName != nil {
		name = *u.FirstName
	}
	if u.LastName != nil {
		if name != "" {
			name += " "
		}
		name += *u.LastName
	}
	return name
}

// EventCreator is the abbreviated creator reference embedded in an event.
type EventCreator struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Event carries aggregate attendee counts and, on the detail endpoint, a
// paginated attendee roster.
type Event struct {
	ID            int          `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Location      string       `json:"location"`
	Status        string       `json:"status"`
	StartTime     string       `json:"start_time"`
	EndTime       string       `json:"end_time"`
	CreatedBy     EventCreator `json:"created_by"`
	CreatedAt     string       `json:"created_at"`
	UpdatedAt     string       `json:"updated_at"`
	DeletedAt     *string      `json:"delete_at"`
	UsersCount    int          `json:"users_count"`
	AttendedCount int          `json:"attended_count"`
	Users         *Page[User]  `json:"users"`
}

// PageLink is one entry of the paginator's links array.
type PageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// Page is the backend's pagination envelope.
type Page[T any] struct {
	CurrentPage  int        `json:"current_page"`
	Data         []T        `json:"data"`
	FirstPageURL string     `json:"first_page_url"`
	From         int        `json:"from"`
	LastPage     int        `json:"last_page"`
	LastPageURL  string     `json:"last_page_url"`
	Links        []PageLink `json:"links"`
	NextPageURL  *string    `json:"next_page_url"`
	Path         string     `json:"path"`
	PerPage      int        `json:"per_page"`
	PrevPageURL  *string    `json:"prev_page_url"`
	To           int        `json:"to"`
	Total        int        `json:"total"`
}

// HasMore reports whether another page exists. Either signal is
// authoritative; absence of both means the last page was reached.
func (p *Page[T]) HasMore() bool {
	return p.NextPageURL != nil || p.CurrentPage < p.LastPage
}

// AttachStats are the reconciliation counters returned by an attach call.
// Ids already attached are excluded from NewlyAttached but still counted in
// TotalAttempted; TotalAttendees is the authoritative roster size.
type AttachStats struct {
	TotalAttempted  int `json:"total_attempted"`
	NewlyAttached   int `json:"newly_attached"`
	AlreadyAttached int `json:"already_attached"`
	TotalAttendees  int `json:"total_attendees"`
}

// DetachStats mirror AttachStats for the detach direction.
type DetachStats struct {
	TotalAttempted   int `json:"total_attempted"`
	ActuallyDetached int `json:"actually_detached"`
	NotAttached      int `json:"not_attached"`
	TotalAttendees   int `json:"total_attendees"`
}

// AttachResult is the full attach response: a human message, the
// post-operation event snapshot and the counters.
type AttachResult struct {
	Message string      `json:"message"`
	Event   Event       `json:"event"`
	Stats   AttachStats `json:"stats"`
}

type DetachResult struct {
	Message string      `json:"message"`
	Event   Event       `json:"event"`
	Stats   DetachStats `json:"stats"`
}

// SphereStat is one row of the per-event vocation sphere breakdown.
type SphereStat struct {
	SphereID   *int    `json:"sphere_id"`
	SphereName string  `json:"sphere_name"`
	SphereSlug string  `json:"sphere_slug"`
	UserCount  int     `json:"user_count"`
	Percentage float64 `json:"percentage"`
}

type SphereStatsSummary struct {
	TotalSpheresRepresented int         `json:"total_spheres_represented"`
	UsersWithoutSpheres     int         `json:"users_without_spheres"`
	MostPopularSphere       *SphereStat `json:"most_popular_sphere"`
}

type SphereStatsResponse struct {
	EventID     int                `json:"event_id"`
	EventName   string             `json:"event_name"`
	TotalUsers  int                `json:"total_users"`
	SphereStats []SphereStat       `json:"sphere_stats"`
	Summary     SphereStatsSummary `json:"summary"`
}

// EventsForUser is the response of the per-user events listing.
type EventsForUser struct {
	Message string `json:"message"`
	User    struct {
		ID    int    `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	Events Page[Event] `json:"events"`
}

// ParseTime reads the backend's ISO timestamps; it tolerates both RFC3339
// and the plain datetime form older records carry.
func ParseTime(value string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
