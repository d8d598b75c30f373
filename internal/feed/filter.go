package feed

import (
	"strings"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/ranking"
	"github.com/samber/lo"
)

// filter drops posts the viewer must not or asked not to see.
// The quality threshold needs scores and is applied during ranking.
func (a *Assembler) filter(posts []models.Post, viewer *ranking.ViewerContext, f Filters) []models.Post {
	contentTypes := lo.Associate(f.ContentTypes, func(t string) (string, bool) { return t, true })
	topics := lo.Associate(f.Topics, func(t string) (string, bool) { return normalizeTopic(t), true })
	pets := lo.Associate(f.PetIDs, func(id string) (string, bool) { return id, true })

	return lo.Filter(posts, func(p models.Post, _ int) bool {
		if p.DeletedAt.Valid || !visibleTo(&p, viewer) {
			return false
		}
		if viewer.Excludes(p.ID, p.AuthorID, p.TextContent) {
			return false
		}
		if len(contentTypes) > 0 && !contentTypes[p.PostType] {
			return false
		}
		if !f.DateRange.contains(p.CreatedAt) {
			return false
		}
		if len(topics) > 0 && !lo.SomeBy(p.Hashtags, func(tag string) bool { return topics[normalizeTopic(tag)] }) {
			return false
		}
		if len(pets) > 0 && !lo.SomeBy(p.PetIDs(), func(id string) bool { return pets[id] }) {
			return false
		}
		return true
	})
}

func visibleTo(p *models.Post, viewer *ranking.ViewerContext) bool {
	if p.AuthorID == viewer.ViewerID {
		return true
	}
	switch p.Visibility {
	case models.VisibilityPrivate:
		return false
	case models.VisibilityFollowers:
		return viewer.IsFollowing(p.AuthorID)
	default:
		return true
	}
}

func normalizeTopic(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}
