package types

import "time"

// StaffRole is the Staff.Role enum. Only buyers participate in
// assignment; supervisors and admins are execution-side roles.
type StaffRole string

const (
	StaffRoleBuyer      StaffRole = "buyer"
	StaffRoleSupervisor StaffRole = "supervisor"
	StaffRoleAdmin      StaffRole = "admin"
)

// StaffStatus is the Staff.Status enum.
type StaffStatus string

const (
	StaffStatusActive  StaffStatus = "active"
	StaffStatusEnRoute StaffStatus = "en_route"
	StaffStatusIdle    StaffStatus = "idle"
	StaffStatusOffDuty StaffStatus = "off_duty"
)

// Staff is a dispatch operator: a field buyer, supervisor, or admin.
type Staff struct {
	ID                int64       `json:"id" db:"id"`
	Name              string      `json:"name" db:"name"`
	Email             string      `json:"email" db:"email"`
	PasswordHash      string      `json:"-" db:"password_hash"`
	Role              StaffRole   `json:"role" db:"role"`
	Status            StaffStatus `json:"status" db:"status"`
	StartLatitude     *float64    `json:"start_latitude,omitempty" db:"start_latitude"`
	StartLongitude    *float64    `json:"start_longitude,omitempty" db:"start_longitude"`
	MaxDailyCapacity  *int        `json:"max_daily_capacity,omitempty" db:"max_daily_capacity"`
	Active            bool        `json:"active" db:"active"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

// EffectiveCapacity resolves the per-staff capacity override against the
// global BusinessRule default.
func (s Staff) EffectiveCapacity(defaultMax int) int {
	if s.MaxDailyCapacity != nil {
		return *s.MaxDailyCapacity
	}
	return defaultMax
}

// BusinessRule is the current active policy record the scheduler and
// allocator read at the start of a planning transaction.
type BusinessRule struct {
	ID                     int64     `json:"id" db:"id"`
	CutoffTime             string    `json:"cutoff_time" db:"cutoff_time"`
	WeekendProcessing      bool      `json:"weekend_processing" db:"weekend_processing"`
	HolidayOverride        bool      `json:"holiday_override" db:"holiday_override"`
	DefaultStartLocationID *int64    `json:"default_start_location,omitempty" db:"default_start_location"`
	MaxOrdersPerStaff      int       `json:"max_orders_per_staff" db:"max_orders_per_staff"`
	AutoAssign             bool      `json:"auto_assign" db:"auto_assign"`
	OptimizationPriority   string    `json:"optimization_priority" db:"optimization_priority"`
	MaxRouteTimeHours      float64   `json:"max_route_time_hours" db:"max_route_time_hours"`
	IncludeReturn          bool      `json:"include_return" db:"include_return"`
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"`
}

// OptimizationPriority values for BusinessRule.OptimizationPriority.
const (
	OptimizationPrioritySpeed    = "speed"
	OptimizationPriorityDistance = "distance"
	OptimizationPriorityBalanced = "balanced"
)

// Holiday overrides the weekday-based cutoff policy for a specific date.
type Holiday struct {
	ID          int64     `json:"id" db:"id"`
	HolidayDate time.Time `json:"holiday_date" db:"holiday_date"`
	Name        string    `json:"name" db:"name"`
	IsWorking   bool      `json:"is_working" db:"is_working"`
}
