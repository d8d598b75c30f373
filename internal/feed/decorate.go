package feed

import (
	"context"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
	"github.com/samber/lo"
)

// decorate attaches author and first-pet display cards. Lookup failures leave the cards empty.
func (a *Assembler) decorate(ctx context.Context, window []ranked) []Item {
	items := make([]Item, 0, len(window))
	if len(window) == 0 {
		return items
	}

	authorIDs := lo.Uniq(lo.Map(window, func(r ranked, _ int) string { return r.post.AuthorID }))
	petIDs := lo.Uniq(lo.FilterMap(window, func(r ranked, _ int) (string, bool) {
		return leadPet(r.post)
	}))

	users, err := a.users.UsersByID(ctx, authorIDs)
	if err != nil {
		logWarn("Failed to load feed authors", err)
		users = map[string]*models.User{}
	}

	pets := map[string]*models.Pet{}
	if len(petIDs) > 0 && a.pets != nil {
		if pets, err = a.pets.PetsByID(ctx, petIDs); err != nil {
			logWarn("Failed to load feed pets", err)
			pets = map[string]*models.Pet{}
		}
	}

	for _, r := range window {
		item := Item{
			ID:        r.post.ID,
			Post:      r.post,
			Score:     r.score,
			CreatedAt: r.post.CreatedAt,
		}
		if u, ok := users[r.post.AuthorID]; ok {
			item.Author = &AuthorDisplay{
				ID:          u.ID,
				Username:    u.Username,
				DisplayName: u.DisplayName,
				AvatarURL:   u.AvatarURL,
			}
		}
		if id, tagged := leadPet(r.post); tagged {
			if p, ok := pets[id]; ok {
				item.Pet = &PetDisplay{
					ID:        p.ID,
					Name:      p.Name,
					Species:   p.Species,
					AvatarURL: p.AvatarURL,
				}
			}
		}
		items = append(items, item)
	}
	return items
}

// leadPet is the first pet tagged on a post, the one shown on its card
func leadPet(p *models.Post) (string, bool) {
	ids := p.PetIDs()
	if len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}
