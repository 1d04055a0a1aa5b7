package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired          = errors.New("user: id is required")
	ErrNicknameRequired    = errors.New("user: nickname is required")
	ErrPasswordHashMissing = errors.New("user: password hash is required")
	ErrInvalidRole         = errors.New("user: invalid role")
	ErrNicknameTaken       = errors.New("user: nickname already used")
	ErrNotFound            = errors.New("user: not found")
)

type ID string

type Role string

const (
	RoleUser      Role = "user"
	RoleVIP       Role = "vip"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// AllRoles lists every role the platform recognizes.
var AllRoles = []Role{RoleUser, RoleVIP, RoleModerator, RoleAdmin}

type User struct {
	ID           ID
	Nickname     string
	PasswordHash string
	Role         Role
	Banned       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type ListParams struct {
	Query  string
	Limit  int
	Offset int
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByNickname(ctx context.Context, nickname string) (*User, error)
	Save(ctx context.Context, user *User) error
	List(ctx context.Context, params ListParams) ([]*User, int, error)
	Count(ctx context.Context) (int, error)
}

type CreateParams struct {
	ID           ID
	Nickname     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

func New(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	nickname := NormalizeNickname(params.Nickname)
	if nickname == "" {
		return nil, ErrNicknameRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	role := NormalizeRole(params.Role)
	if role == "" {
		role = RoleUser
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	return &User{
		ID:           ID(id),
		Nickname:     nickname,
		PasswordHash: params.PasswordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) AssignRole(role Role, now time.Time) error {
	normalized := NormalizeRole(role)
	if normalized == "" {
		return ErrInvalidRole
	}
	u.Role = normalized
	u.touch(now)
	return nil
}

func (u *User) SetBanned(banned bool, now time.Time) {
	u.Banned = banned
	u.touch(now)
}

func (u *User) SetPasswordHash(hash string, now time.Time) error {
	if strings.TrimSpace(hash) == "" {
		return ErrPasswordHashMissing
	}
	u.PasswordHash = hash
	u.touch(now)
	return nil
}

// Privileged reports whether the role grants VIP placement for new ads.
func (u *User) Privileged() bool {
	switch u.Role {
	case RoleVIP, RoleModerator, RoleAdmin:
		return true
	default:
		return false
	}
}

// Moderates reports whether the role may act on other users' content.
func (u *User) Moderates() bool {
	return u.Role == RoleModerator || u.Role == RoleAdmin
}

func (u *User) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	u.UpdatedAt = now.UTC()
}

func NormalizeRole(role Role) Role {
	switch strings.ToLower(strings.TrimSpace(string(role))) {
	case "user":
		return RoleUser
	case "vip":
		return RoleVIP
	case "moderator":
		return RoleModerator
	case "admin":
		return RoleAdmin
	default:
		return ""
	}
}

func NormalizeNickname(nickname string) string {
	return strings.ToLower(strings.TrimSpace(nickname))
}
