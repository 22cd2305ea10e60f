package role

import (
	"context"
	"fmt"
)

// diff compares the held permission ids with the wanted ones. Both results are deduplicated and
// keep the order of their source slice.
func diff(current, desired []int64) (toAdd, toRemove []int64) {
	return difference(desired, current), difference(current, desired)
}

// difference returns the ids of a that are not in b.
func difference(a, b []int64) []int64 {
	exclude := make(map[int64]struct{}, len(b))
	for _, id := range b {
		exclude[id] = struct{}{}
	}
	out := make([]int64, 0, len(a))
	for _, id := range a {
		if _, ok := exclude[id]; ok {
			continue
		}
		exclude[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// intersect returns the ids of a that are also in b.
func intersect(a, b []int64) []int64 {
	keep := make(map[int64]struct{}, len(b))
	for _, id := range b {
		keep[id] = struct{}{}
	}
	out := make([]int64, 0, len(a))
	for _, id := range a {
		if _, ok := keep[id]; !ok {
			continue
		}
		delete(keep, id)
		out = append(out, id)
	}
	return out
}

// synchronize makes the role hold exactly desired.
func synchronize(ctx context.Context, repo RepositoryAPI, roleID int64, desired []int64) error {
	current, err := repo.PermissionIDs(ctx, roleID)
	if err != nil {
		return fmt.Errorf("load permissions of role %d: %w", roleID, err)
	}

	toAdd, toRemove := diff(current, desired)
	if len(toRemove) > 0 {
		if err := repo.DetachPermissions(ctx, roleID, toRemove); err != nil {
			return fmt.Errorf("detach permissions from role %d: %w", roleID, err)
		}
	}
	if len(toAdd) > 0 {
		if err := repo.AttachPermissions(ctx, roleID, toAdd); err != nil {
			return fmt.Errorf("attach permissions to role %d: %w", roleID, err)
		}
	}
	return nil
}

// grant adds the permissions of requested that the role does not hold yet.
func grant(ctx context.Context, repo RepositoryAPI, roleID int64, requested []int64) error {
	current, err := repo.PermissionIDs(ctx, roleID)
	if err != nil {
		return fmt.Errorf("load permissions of role %d: %w", roleID, err)
	}

	if toAdd := difference(requested, current); len(toAdd) > 0 {
		if err := repo.AttachPermissions(ctx, roleID, toAdd); err != nil {
			return fmt.Errorf("attach permissions to role %d: %w", roleID, err)
		}
	}
	return nil
}

// revoke removes the permissions of requested that the role holds.
func revoke(ctx context.Context, repo RepositoryAPI, roleID int64, requested []int64) error {
	current, err := repo.PermissionIDs(ctx, roleID)
	if err != nil {
		return fmt.Errorf("load permissions of role %d: %w", roleID, err)
	}

	if toRemove := intersect(requested, current); len(toRemove) > 0 {
		if err := repo.DetachPermissions(ctx, roleID, toRemove); err != nil {
			return fmt.Errorf("detach permissions from role %d: %w", roleID, err)
		}
	}
	return nil
}
