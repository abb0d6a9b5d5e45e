package server

import (
	"net/http"
	"regexp"
	"strconv"

	"tidder/internal/auth"
	"tidder/internal/models"
	"tidder/internal/policy"
	"tidder/internal/sanitize"
)

var reTitle = regexp.MustCompile(`^[a-zA-Z0-9_ ]+$`)

// viewer resolves the caller leniently: failures mean anonymous, not
// an error. Content reads are open to everyone; the policy layer
// decides what an anonymous viewer gets.
func (s *Server) viewer(r *http.Request) *auth.Identity {
	id, err := auth.ResolveIdentity(s.Keys.Public, r)
	if err != nil {
		return nil
	}
	return id
}

func postItem(p *models.Post) policy.Item {
	return policy.Item{AuthorID: p.AuthorID, Published: p.Published, Deleted: p.Deleted}
}

// Comments have no draft state; they are born published.
func commentItem(c *models.Comment) policy.Item {
	return policy.Item{AuthorID: c.AuthorID, Published: true, Deleted: c.Deleted}
}

// sanitizePosts applies the policy to a listing. Hidden entries are
// dropped rather than 404'd; a listing simply doesn't contain them.
func sanitizePosts(posts []models.Post, viewer *auth.Identity, showAll bool) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		verdict := policy.Decide(viewer, postItem(&p), showAll)
		if verdict == policy.Hidden {
			continue
		}
		out = append(out, sanitize.Post(p, verdict))
	}
	return out
}

func sanitizeComments(comments []models.Comment, viewer *auth.Identity, showAll bool) []models.Comment {
	out := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		verdict := policy.Decide(viewer, commentItem(&c), showAll)
		if verdict == policy.Hidden {
			continue
		}
		out = append(out, sanitize.Comment(c, verdict))
	}
	return out
}

// ---- categories ----

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := models.ListCategories(s.DB)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if id == 0 {
		s.writeError(w, http.StatusBadRequest, "Category not found")
		return
	}
	cat, err := models.GetCategory(s.DB, id)
	if err == models.ErrNotFound {
		s.writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"category": cat})
}

func (s *Server) handleCategoryPosts(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if id == 0 {
		s.writeError(w, http.StatusBadRequest, "Category not found")
		return
	}
	showAll := auth.ResolveShowAll(s.Keys.Public, r)
	posts, err := models.ListPostsByCategory(s.DB, id, showAll)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"posts": sanitizePosts(posts, s.viewer(r), showAll)})
}

// ---- posts ----

func (s *Server) handlePopularPosts(w http.ResponseWriter, r *http.Request) {
	showAll := auth.ResolveShowAll(s.Keys.Public, r)
	posts, err := models.ListPosts(s.DB, showAll)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"posts": sanitizePosts(posts, s.viewer(r), showAll)})
}

func (s *Server) handleOwnPosts(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	posts, err := models.ListPostsByAuthor(s.DB, id.UserID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}
	// The author sees their own drafts; deleted ones still come back
	// redacted (deletion hides content even from its author).
	s.writeJSON(w, http.StatusOK, map[string]any{"posts": sanitizePosts(posts, id, false)})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if id == 0 {
		s.writeError(w, http.StatusBadRequest, "Post not found")
		return
	}
	showAll := auth.ResolveShowAll(s.Keys.Public, r)
	post, err := models.GetPost(s.DB, id)
	if err == models.ErrNotFound {
		s.writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch post")
		return
	}

	verdict := policy.Decide(s.viewer(r), postItem(post), showAll)
	if verdict == policy.Hidden {
		// Identical to the missing-row response above: a draft's
		// existence must not be probeable.
		s.writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	category, err := models.GetCategory(s.DB, post.CategoryID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"post":     sanitize.Post(*post, verdict),
	})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	title := r.FormValue("title")
	body := r.FormValue("body")
	newCategory := r.FormValue("new_category")
	categoryID := r.FormValue("category_id")

	if msg := validateNewPost(title, body, newCategory, categoryID); msg != "" {
		s.writeError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := models.GetUserByID(s.DB, id.UserID)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "User not found")
		return
	}

	var category *models.Category
	if newCategory != "" {
		category, err = models.CreateCategory(s.DB, newCategory)
		if err == models.ErrDuplicateCategory {
			s.writeError(w, http.StatusBadRequest, "Category already exists")
			return
		}
	} else {
		cid, _ := strconv.ParseInt(categoryID, 10, 64)
		category, err = models.GetCategory(s.DB, cid)
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	published := r.URL.Query().Get("draft") != "true"
	postID, err := models.CreatePost(s.DB, user.ID, user.Username, category.ID, title, body, published)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"category_id": category.ID, "post_id": postID})
}

func (s *Server) handlePublishPost(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	post, err := models.GetPost(s.DB, pathID(r))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	// Authors publish their own work; this is not a moderation
	// action, so admins get no shortcut here.
	if !policy.CanPublish(id, postItem(post)) {
		s.writeError(w, http.StatusForbidden, "Forbidden")
		return
	}
	if err := models.PublishPost(s.DB, post.ID); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "Post published"})
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	post, err := models.GetPost(s.DB, pathID(r))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if !policy.CanModify(id, postItem(post)) {
		s.writeError(w, http.StatusForbidden, "Forbidden")
		return
	}
	if err := models.MarkPostDeleted(s.DB, post.ID); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "Post deleted"})
}

// ---- comments ----

func (s *Server) handlePostComments(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if id == 0 {
		s.writeError(w, http.StatusBadRequest, "Post not found")
		return
	}
	showAll := auth.ResolveShowAll(s.Keys.Public, r)
	comments, err := models.ListCommentsByPost(s.DB, id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"comments": sanitizeComments(comments, s.viewer(r), showAll)})
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	body := r.FormValue("body")
	if len(body) < 1 {
		s.writeError(w, http.StatusBadRequest, "Body must be at least 1 characters long")
		return
	}
	if len(body) > 10000 {
		s.writeError(w, http.StatusBadRequest, "Body must be less than 10000 characters long")
		return
	}

	user, err := models.GetUserByID(s.DB, id.UserID)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "User not found")
		return
	}
	post, err := models.GetPost(s.DB, pathID(r))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Post not found")
		return
	}

	commentID, err := models.CreateComment(s.DB, post.ID, user.ID, user.Username, body)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"post_id": post.ID, "comment_id": commentID})
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	comment, err := models.GetComment(s.DB, pathID(r))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if !policy.CanModify(id, commentItem(comment)) {
		s.writeError(w, http.StatusForbidden, "Forbidden")
		return
	}
	if err := models.MarkCommentDeleted(s.DB, comment.ID); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// ---- votes ----

func (s *Server) handleVotePost(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	value, _ := strconv.Atoi(r.FormValue("value"))
	if value != 1 && value != -1 {
		s.writeError(w, http.StatusBadRequest, "Invalid vote value")
		return
	}
	post, err := models.GetPost(s.DB, pathID(r))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Post not found")
		return
	}
	if err := models.VotePost(s.DB, post.ID, id.UserID, value); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleVoteComment(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
	value, _ := strconv.Atoi(r.FormValue("value"))
	if value != 1 && value != -1 {
		s.writeError(w, http.StatusBadRequest, "Invalid vote value")
		return
	}
	comment, err := models.GetComment(s.DB, pathID(r))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err := models.VoteComment(s.DB, comment.ID, id.UserID, value); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// ---- search ----

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.writeError(w, http.StatusBadRequest, "Missing query parameter")
		return
	}
	categories, err := models.SearchCategories(s.DB, q)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	posts, err := models.SearchPosts(s.DB, q)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"categories": categories,
		// Search only surfaces live content, so every hit renders in
		// full.
		"posts": sanitizePosts(posts, nil, false),
	})
}

func validateNewPost(title, body, newCategory, categoryID string) string {
	switch {
	case len(body) < 10:
		return "Post body must be at least 10 characters long"
	case len(body) > 10000:
		return "Post body can be at most 10000 characters long"
	case !reTitle.MatchString(title):
		return "Title can only contain letters, numbers, spaces and underscores"
	case len(title) < 5:
		return "Title must be at least 5 characters long"
	case len(title) > 100:
		return "Title must be less than 100 characters long"
	case newCategory == "" && categoryID == "":
		return "Category is required"
	case newCategory != "" && categoryID != "":
		return "Cannot specify both category and new_category"
	case newCategory != "" && len(newCategory) < 3:
		return "New category name must be at least 3 characters long"
	case newCategory != "" && len(newCategory) > 50:
		return "New category name must be less than 50 characters long"
	case newCategory != "" && !reTitle.MatchString(newCategory):
		return "New category name can only contain letters, numbers, spaces and underscores"
	}
	return ""
}
