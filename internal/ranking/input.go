package ranking

import (
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/models"
)

// NewInput builds a scoring input from a stored post and its aggregate share and save counts
func NewInput(post *models.Post, shares, saves int64) Input {
	return Input{
		PostID:    post.ID,
		AuthorID:  post.AuthorID,
		CreatedAt: post.CreatedAt,
		Engagement: Engagement{
			Reactions: post.ReactionCount(),
			Comments:  post.CommentCount,
			Shares:    shares,
			Saves:     saves,
		},
		ContentType: post.PostType,
		Hashtags:    post.Hashtags,
		PlaceID:     post.PlaceID,
	}
}
