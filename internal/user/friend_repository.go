package user

import (
	"context"

	"gorm.io/gorm"

	"echochat/internal/dbmysql"
)

// FriendRepository is the read side of the friends table this process
// needs: presence transitions are broadcast to accepted contacts only, and
// friendships are written elsewhere.
type FriendRepository interface {
	FriendIDs(ctx context.Context, userID uint64) ([]uint64, error)
}

type friendRepository struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

// FriendIDs returns the ids of every user with an accepted friendship with
// userID, whichever side initiated it.
func (r *friendRepository) FriendIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var friends []dbmysql.Friend
	err := r.db.WithContext(ctx).
		Where("(user_id = ? OR friend_user_id = ?) AND status = ?", userID, userID, "accepted").
		Find(&friends).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(friends))
	for _, f := range friends {
		if f.UserID == userID {
			ids = append(ids, f.FriendUserID)
		} else {
			ids = append(ids, f.UserID)
		}
	}
	return ids, nil
}
