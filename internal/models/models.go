package models

import (
	"time"

	"gorm.io/gorm"
)

// Role constants. Every user holds exactly one role; the approval workflow
// gates each stage transition on the actor's role.
const (
	RoleAdministrator  = "administrator"
	RoleOPD            = "opd"
	RoleResepsionis    = "resepsionis"
	RolePBMD           = "pbmd"
	RoleAkuntansi      = "akuntansi"
	RolePerbendaharaan = "perbendaharaan"
	RoleKepalaBKAD     = "kepala_bkad"
)

// ValidRoles lists the closed role set.
var ValidRoles = []string{
	RoleAdministrator,
	RoleOPD,
	RoleResepsionis,
	RolePBMD,
	RoleAkuntansi,
	RolePerbendaharaan,
	RoleKepalaBKAD,
}

// IsValidRole reports whether role is a member of the closed role set.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents a system user
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password  string         `gorm:"size:255" json:"-"` // Hashed password, empty for LDAP users
	FullName  string         `gorm:"size:200" json:"full_name"`
	Email     string         `gorm:"size:255" json:"email"`
	Phone     string         `gorm:"size:30" json:"phone"` // WhatsApp delivery target
	Role      string         `gorm:"size:50;default:opd" json:"role"`
	OPDID     *uint          `json:"opd_id"`
	OPD       *OPD           `gorm:"foreignKey:OPDID" json:"opd,omitempty"`
	AuthType  string         `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	IsDemo    bool           `gorm:"default:false" json:"is_demo"` // demo accounts cannot mutate state
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// OPD is a regional government organizational unit (spending unit).
type OPD struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Code      string         `gorm:"uniqueIndex;size:50;not null" json:"code"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	HeadName  string         `gorm:"size:200" json:"head_name"`
	Address   string         `gorm:"size:500" json:"address"`
	Phone     string         `gorm:"size:30" json:"phone"`
	Email     string         `gorm:"size:255" json:"email"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// RefreshToken stores hashed refresh tokens for session renewal.
type RefreshToken struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"index;not null" json:"user_id"`
	TokenHash         string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	ExpiresAt         time.Time  `json:"expires_at"`
	RevokedAt         *time.Time `json:"revoked_at"`
	ReplacedByTokenID *uint      `json:"replaced_by_token_id"`
	CreatedByIP       string     `gorm:"size:50" json:"created_by_ip"`
	UserAgent         string     `gorm:"size:500" json:"user_agent"`
	CreatedAt         time.Time  `json:"created_at"`
}

// SystemConfig represents system-wide configuration (stored in database)
type SystemConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:20;default:string" json:"type"` // string, int, bool, json
	Group     string    `gorm:"size:50;index" json:"group"`         // general, email, whatsapp, emergency, archive, auth, ldap
	Label     string    `gorm:"size:200" json:"label"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SystemLog represents an audit trail entry. Rows written while emergency
// mode is active (or about emergency mode itself) carry IsEmergency = true.
type SystemLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Level       string    `gorm:"size:20;index" json:"level"` // info, warning, error
	Module      string    `gorm:"size:100;index" json:"module"`
	Action      string    `gorm:"size:200;index" json:"action"`
	Message     string    `gorm:"type:text" json:"message"`
	UserID      *uint     `json:"user_id"`
	IP          string    `gorm:"size:50" json:"ip"`
	UserAgent   string    `gorm:"size:500" json:"user_agent"`
	Extra       string    `gorm:"type:text" json:"extra"` // JSON extra data
	IsEmergency bool      `gorm:"default:false;index" json:"is_emergency"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// Notification is an in-app notification row for one user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	Category  string    `gorm:"size:50;index" json:"category"` // approval, revision, rejection, otp, disbursement, emergency
	RefType   string    `gorm:"size:20" json:"ref_type"`       // spm, sp2d
	RefID     *uint     `json:"ref_id"`
	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName overrides
func (User) TableName() string         { return "users" }
func (OPD) TableName() string          { return "opds" }
func (RefreshToken) TableName() string { return "refresh_tokens" }
func (SystemConfig) TableName() string { return "system_configs" }
func (SystemLog) TableName() string    { return "system_logs" }
func (Notification) TableName() string { return "notifications" }
