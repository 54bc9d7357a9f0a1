package contentstore

import (
	"context"
	"fmt"

	"github.com/blog-post-pages/internal/models"
	"github.com/google/uuid"
)

// ImportResult summarizes one fixture import
type ImportResult struct {
	Authors  int `json:"authors"`
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
}

// Import loads exported post documents, with their authors and comments, into
// the relational schema. Document ids that are not UUIDs are mapped to stable
// name based UUIDs so comment references keep pointing at their post.
func (s *PostgresStore) Import(ctx context.Context, posts []models.Post) (*ImportResult, error) {
	result := &ImportResult{}
	authors := make(map[string]string)

	for i := range posts {
		post := posts[i]
		if post.Slug.Current == "" {
			s.log.Warn().Str("post_id", post.ID).Msg("Skipping post without slug")
			continue
		}
		post.ID = documentID("post", post.ID, post.Slug.Current)

		var authorID string
		if name := post.Author.Name; name != "" {
			id, ok := authors[name]
			if !ok {
				id = documentID("author", "", name)
				author := post.Author
				if err := s.repos.Author.Create(ctx, id, &author); err != nil {
					return result, fmt.Errorf("import author %q: %w", name, err)
				}
				authors[name] = id
				result.Authors++
			}
			authorID = id
		}

		if err := s.repos.Post.Create(ctx, &post, authorID); err != nil {
			return result, fmt.Errorf("import post %s: %w", post.Slug.Current, err)
		}
		result.Posts++

		for j := range post.Comments {
			comment := post.Comments[j]
			comment.ID = documentID("comment", comment.ID, fmt.Sprintf("%s/%d", post.ID, j))
			comment.Post = models.PostRef{Ref: post.ID, Type: "reference"}
			if err := s.repos.Comment.Create(ctx, &comment); err != nil {
				return result, fmt.Errorf("import comment %s: %w", comment.ID, err)
			}
			result.Comments++
		}
	}

	s.log.Info().
		Int("authors", result.Authors).
		Int("posts", result.Posts).
		Int("comments", result.Comments).
		Msg("Fixtures imported")
	return result, nil
}

// documentID keeps UUID ids and derives one from kind and fallback otherwise
func documentID(kind, id, fallback string) string {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	name := id
	if name == "" {
		name = fallback
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(kind+":"+name)).String()
}
