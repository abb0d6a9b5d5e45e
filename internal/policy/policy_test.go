package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tidder/internal/auth"
)

var (
	anonymous *auth.Identity
	author    = &auth.Identity{UserID: "author-1", Role: auth.RoleUser}
	stranger  = &auth.Identity{UserID: "other-1", Role: auth.RoleUser}
	admin     = &auth.Identity{UserID: "admin-1", Role: auth.RoleAdmin}
)

func TestDecideDrafts(t *testing.T) {
	draft := Item{AuthorID: "author-1", Published: false}

	cases := []struct {
		name    string
		viewer  *auth.Identity
		showAll bool
		want    Verdict
	}{
		{"anonymous", anonymous, false, Hidden},
		{"author", author, false, FullyVisible},
		{"stranger", stranger, false, Hidden},
		// Admins don't see drafts ambiently; they must ask.
		{"admin without show_all", admin, false, Hidden},
		{"admin with show_all", admin, true, FullyVisible},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Decide(tc.viewer, draft, tc.showAll))
		})
	}
}

func TestDecideDeleted(t *testing.T) {
	deleted := Item{AuthorID: "author-1", Published: true, Deleted: true}

	// Deletion redacts for everyone, the author included.
	for name, viewer := range map[string]*auth.Identity{
		"anonymous": anonymous, "author": author, "stranger": stranger, "admin": admin,
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, RedactedVisible, Decide(viewer, deleted, false))
		})
	}

	// Only the explicit override bypasses redaction.
	require.Equal(t, FullyVisible, Decide(admin, deleted, true))
}

func TestDecideDeletedDraft(t *testing.T) {
	item := Item{AuthorID: "author-1", Published: false, Deleted: true}

	// The draft gate runs first: strangers get Hidden, not Redacted.
	require.Equal(t, Hidden, Decide(stranger, item, false))
	require.Equal(t, Hidden, Decide(anonymous, item, false))
	// The author passes the gate and then hits the redaction.
	require.Equal(t, RedactedVisible, Decide(author, item, false))
	require.Equal(t, FullyVisible, Decide(admin, item, true))
}

func TestDecideLive(t *testing.T) {
	live := Item{AuthorID: "author-1", Published: true}
	for name, viewer := range map[string]*auth.Identity{
		"anonymous": anonymous, "author": author, "stranger": stranger, "admin": admin,
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, FullyVisible, Decide(viewer, live, false))
		})
	}
}

func TestCanModify(t *testing.T) {
	item := Item{AuthorID: "author-1", Published: true}
	require.True(t, CanModify(author, item))
	require.True(t, CanModify(admin, item))
	require.False(t, CanModify(stranger, item))
	require.False(t, CanModify(anonymous, item))
}

func TestCanPublish(t *testing.T) {
	item := Item{AuthorID: "author-1", Published: false}
	require.True(t, CanPublish(author, item))
	// Publishing is authorial, not moderation.
	require.False(t, CanPublish(admin, item))
	require.False(t, CanPublish(stranger, item))
	require.False(t, CanPublish(anonymous, item))
}
