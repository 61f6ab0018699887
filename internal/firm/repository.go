package firm

import (
	"context"
	"errors"
)

var (
	ErrFirmNotFound      = errors.New("firm not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrMemberExists      = errors.New("member already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Repository defines the interface for firm storage
type Repository interface {
	Create(ctx context.Context, firm *Firm) error
	GetByID(ctx context.Context, id string) (*Firm, error)
	Update(ctx context.Context, firm *Firm) error
	List(ctx context.Context, limit, offset int) ([]*Firm, error)
}

// MemberRepository defines the interface for member storage
type MemberRepository interface {
	Create(ctx context.Context, member *Member) error
	GetByID(ctx context.Context, id string) (*Member, error)
	// GetByUser returns the membership of a user in a firm, or
	// ErrMemberNotFound when the user is not provisioned there.
	GetByUser(ctx context.Context, firmID, userID string) (*Member, error)
	Update(ctx context.Context, member *Member) error
	ListByFirm(ctx context.Context, firmID string) ([]*Member, error)
}
