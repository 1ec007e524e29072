package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/summitcrm/pipeline-api/internal/repository"
)

// lookupUserNames resolves display names for a set of user IDs. Lookup
// failures degrade to empty names rather than failing the caller.
func lookupUserNames(ctx context.Context, userRepo *repository.UserRepository, ids []uuid.UUID) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string)
	if userRepo == nil || len(ids) == 0 {
		return names
	}

	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	users, err := userRepo.GetManyByID(ctx, unique)
	if err != nil {
		return names
	}
	for id, user := range users {
		names[id] = user.DisplayName
	}
	return names
}
