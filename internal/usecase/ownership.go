package usecase

import "github.com/juniorjunco/blog-pro/internal/domain"

// CanMutate reports whether identity may edit or delete the post. Only the
// owner may. News items and vote counters are not subject to this check.
func CanMutate(identity domain.Identity, post *domain.Post) bool {
	return post != nil && identity.UserID != "" && post.OwnerID == identity.UserID
}

func ensureCanMutate(identity domain.Identity, post *domain.Post) error {
	if !CanMutate(identity, post) {
		return domain.Errorf(domain.ErrForbidden, "Unauthorized action")
	}
	return nil
}
