package messenger

import (
	"context"

	"skoropad/internal/domain/messaging"
	domainuser "skoropad/internal/domain/user"
)

// UserDirectory resolves counterpart profiles from the user repository.
type UserDirectory struct {
	Users domainuser.Repository
}

func (d UserDirectory) PublicProfile(ctx context.Context, id domainuser.ID) (messaging.Profile, error) {
	user, err := d.Users.ByID(ctx, id)
	if err != nil {
		return messaging.Profile{}, err
	}
	return messaging.Profile{
		ID:       user.ID,
		Nickname: user.Nickname,
		Role:     user.Role,
	}, nil
}

var _ messaging.Directory = UserDirectory{}
