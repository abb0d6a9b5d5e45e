package models

import (
	"database/sql"
	"strings"
	"time"
)

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func CreateCategory(db *sql.DB, name string) (*Category, error) {
	res, err := db.Exec(`INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: categories.name") {
			return nil, ErrDuplicateCategory
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Category{ID: id, Name: name}, nil
}

func GetCategory(db *sql.DB, id int64) (*Category, error) {
	row := db.QueryRow(`SELECT id, name FROM categories WHERE id = ?`, id)
	var c Category
	if err := row.Scan(&c.ID, &c.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func GetCategoryByName(db *sql.DB, name string) (*Category, error) {
	row := db.QueryRow(`SELECT id, name FROM categories WHERE name = ?`, name)
	var c Category
	if err := row.Scan(&c.ID, &c.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListCategories counts only posts a regular visitor would see.
func ListCategories(db *sql.DB) ([]Category, error) {
	rows, err := db.Query(`SELECT c.id, c.name,
        (SELECT COUNT(*) FROM posts p WHERE p.category_id = c.id AND p.published = 1 AND p.deleted = 0)
        FROM categories c ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Posts); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func CreatePost(db *sql.DB, authorID, authorName string, categoryID int64, title, body string, published bool) (int64, error) {
	ts := now()
	res, err := db.Exec(`INSERT INTO posts (author_id, author_name, category_id, title, body, published, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		authorID, authorName, categoryID, title, body, published, ts, ts)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const postColumns = `p.id, p.author_id, p.author_name, p.category_id, c.name, p.title, p.body,
    p.upvotes, p.downvotes, p.published, p.deleted, p.created_at, p.updated_at`

func scanPost(rows interface{ Scan(...any) error }) (*Post, error) {
	var p Post
	err := rows.Scan(&p.ID, &p.AuthorID, &p.AuthorName, &p.CategoryID, &p.CategoryName, &p.Title, &p.Body,
		&p.Upvotes, &p.Downvotes, &p.Published, &p.Deleted, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPost returns the row regardless of its published/deleted flags.
// Visibility is the caller's decision, not the store's.
func GetPost(db *sql.DB, id int64) (*Post, error) {
	row := db.QueryRow(`SELECT `+postColumns+` FROM posts p JOIN categories c ON c.id = p.category_id WHERE p.id = ?`, id)
	return scanPost(row)
}

func listPosts(db *sql.DB, where string, order string, args ...any) ([]Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts p JOIN categories c ON c.id = p.category_id`
	if where != "" {
		q += ` WHERE ` + where
	}
	q += ` ORDER BY ` + order
	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

const popularOrder = `p.upvotes DESC, p.downvotes ASC, p.created_at DESC`

func ListPosts(db *sql.DB, showAll bool) ([]Post, error) {
	if showAll {
		return listPosts(db, "", popularOrder)
	}
	return listPosts(db, `p.published = 1 AND p.deleted = 0`, popularOrder)
}

func ListPostsByCategory(db *sql.DB, categoryID int64, showAll bool) ([]Post, error) {
	if showAll {
		return listPosts(db, `p.category_id = ?`, popularOrder, categoryID)
	}
	return listPosts(db, `p.category_id = ? AND p.published = 1 AND p.deleted = 0`, popularOrder, categoryID)
}

// ListPostsByAuthor includes the author's drafts and deleted posts.
func ListPostsByAuthor(db *sql.DB, authorID string) ([]Post, error) {
	return listPosts(db, `p.author_id = ?`, `p.created_at DESC`, authorID)
}

func SearchPosts(db *sql.DB, q string) ([]Post, error) {
	pattern := "%" + q + "%"
	return listPosts(db,
		`(p.title LIKE ? OR p.body LIKE ? OR p.author_name LIKE ?) AND p.published = 1 AND p.deleted = 0`,
		popularOrder, pattern, pattern, pattern)
}

func SearchCategories(db *sql.DB, q string) ([]Category, error) {
	rows, err := db.Query(`SELECT id, name FROM categories WHERE name LIKE ? ORDER BY name`, "%"+q+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func PublishPost(db *sql.DB, id int64) error {
	_, err := db.Exec(`UPDATE posts SET published = 1, updated_at = ? WHERE id = ?`, now(), id)
	return err
}

// MarkPostDeleted soft-deletes: the row stays, readers see the
// redaction marker.
func MarkPostDeleted(db *sql.DB, id int64) error {
	_, err := db.Exec(`UPDATE posts SET deleted = 1, updated_at = ? WHERE id = ?`, now(), id)
	return err
}

func CreateComment(db *sql.DB, postID int64, authorID, authorName, body string) (int64, error) {
	ts := now()
	res, err := db.Exec(`INSERT INTO comments (post_id, author_id, author_name, body, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		postID, authorID, authorName, body, ts, ts)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const commentColumns = `id, post_id, author_id, author_name, body, upvotes, downvotes, deleted, created_at, updated_at`

func scanComment(rows interface{ Scan(...any) error }) (*Comment, error) {
	var c Comment
	err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Body,
		&c.Upvotes, &c.Downvotes, &c.Deleted, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func GetComment(db *sql.DB, id int64) (*Comment, error) {
	row := db.QueryRow(`SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	return scanComment(row)
}

func ListCommentsByPost(db *sql.DB, postID int64) ([]Comment, error) {
	rows, err := db.Query(`SELECT `+commentColumns+` FROM comments WHERE post_id = ?
        ORDER BY upvotes DESC, downvotes ASC, created_at ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cs []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		cs = append(cs, *c)
	}
	return cs, rows.Err()
}

func MarkCommentDeleted(db *sql.DB, id int64) error {
	_, err := db.Exec(`UPDATE comments SET deleted = 1, updated_at = ? WHERE id = ?`, now(), id)
	return err
}

// VotePost toggles: voting the same value twice clears the vote,
// voting the opposite value flips it. The aggregate columns on the
// post row are recomputed from the vote rows.
func VotePost(db *sql.DB, postID int64, userID string, value int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO post_votes (post_id, user_id, value) VALUES (?, ?, ?)
        ON CONFLICT(post_id, user_id) DO UPDATE SET value = CASE
            WHEN post_votes.value = ? THEN 0 ELSE ? END`, postID, userID, value, value, value)
	if err != nil {
		tx.Rollback()
		return err
	}
	_, err = tx.Exec(`UPDATE posts SET
        upvotes = (SELECT COUNT(*) FROM post_votes WHERE post_id = ? AND value = 1),
        downvotes = (SELECT COUNT(*) FROM post_votes WHERE post_id = ? AND value = -1)
        WHERE id = ?`, postID, postID, postID)
	if err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func VoteComment(db *sql.DB, commentID int64, userID string, value int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO comment_votes (comment_id, user_id, value) VALUES (?, ?, ?)
        ON CONFLICT(comment_id, user_id) DO UPDATE SET value = CASE
            WHEN comment_votes.value = ? THEN 0 ELSE ? END`, commentID, userID, value, value, value)
	if err != nil {
		tx.Rollback()
		return err
	}
	_, err = tx.Exec(`UPDATE comments SET
        upvotes = (SELECT COUNT(*) FROM comment_votes WHERE comment_id = ? AND value = 1),
        downvotes = (SELECT COUNT(*) FROM comment_votes WHERE comment_id = ? AND value = -1)
        WHERE id = ?`, commentID, commentID, commentID)
	if err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
