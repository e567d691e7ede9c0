package repository_test

import (
	"context"
	"testing"
	"time"

	"lifeline/backend/internal/model"
	"lifeline/backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func at(offset time.Duration) time.Time { return base.Add(offset) }

func newConversation(id, title string, created time.Time) *model.Conversation {
	return &model.Conversation{ID: id, Title: title, CreatedAt: created, UpdatedAt: created}
}

func newMessage(id, convID string, role model.Role, content string, ts time.Time) *model.Message {
	return &model.Message{ID: id, ConversationID: convID, Role: role, Content: content, Timestamp: ts}
}

// runRepositoryContract exercises the behaviour every backend must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) repository.Repository) {
	ctx := context.Background()

	t.Run("save and get conversation", func(t *testing.T) {
		repo := newRepo(t)
		conv := newConversation("c1", "Lost in forest", at(0))

		require.NoError(t, repo.SaveConversation(ctx, conv))
		got, err := repo.GetConversation(ctx, "c1")

		require.NoError(t, err)
		assert.Equal(t, conv, got)
	})

	t.Run("get unknown conversation", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetConversation(ctx, "nope")

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("list orders by recency", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.SaveConversation(ctx, newConversation("old", "old", at(0))))
		require.NoError(t, repo.SaveConversation(ctx, newConversation("new", "new", at(time.Minute))))
		require.NoError(t, repo.AddMessage(ctx, newMessage("m1", "old", model.RoleUser, "hi", at(2*time.Minute))))

		list, err := repo.ListConversations(ctx)

		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "old", list[0].ID)
		assert.Equal(t, at(2*time.Minute), list[0].UpdatedAt)
		assert.Equal(t, "new", list[1].ID)
	})

	t.Run("list empty", func(t *testing.T) {
		repo := newRepo(t)

		list, err := repo.ListConversations(ctx)

		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("touch renames and bumps", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.SaveConversation(ctx, newConversation("c1", "first", at(0))))
		title := "Flood plan"

		require.NoError(t, repo.TouchConversation(ctx, "c1", &title, at(time.Hour)))
		got, err := repo.GetConversation(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "Flood plan", got.Title)
		assert.Equal(t, at(0), got.CreatedAt)
		assert.Equal(t, at(time.Hour), got.UpdatedAt)

		require.NoError(t, repo.TouchConversation(ctx, "c1", nil, at(2*time.Hour)))
		got, err = repo.GetConversation(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "Flood plan", got.Title)
		assert.Equal(t, at(2*time.Hour), got.UpdatedAt)
	})

	t.Run("touch unknown conversation", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.TouchConversation(ctx, "nope", nil, at(0))

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("messages come back in timestamp order", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.SaveConversation(ctx, newConversation("c1", "t", at(0))))
		require.NoError(t, repo.AddMessage(ctx, newMessage("b", "c1", model.RoleAssistant, "second", at(2*time.Microsecond))))
		require.NoError(t, repo.AddMessage(ctx, newMessage("a", "c1", model.RoleUser, "first", at(time.Microsecond))))
		require.NoError(t, repo.AddMessage(ctx, newMessage("c", "c1", model.RoleUser, "third", at(3*time.Microsecond))))

		msgs, err := repo.GetMessages(ctx, "c1")

		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, []string{"first", "second", "third"}, []string{msgs[0].Content, msgs[1].Content, msgs[2].Content})
		assert.Equal(t, *newMessage("a", "c1", model.RoleUser, "first", at(time.Microsecond)), msgs[0])
	})

	t.Run("add message to unknown conversation persists nothing", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.AddMessage(ctx, newMessage("m1", "ghost", model.RoleUser, "hi", at(0)))
		assert.ErrorIs(t, err, repository.ErrNotFound)

		msgs, err := repo.GetMessages(ctx, "ghost")
		require.NoError(t, err)
		assert.Empty(t, msgs)
		list, err := repo.ListConversations(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("delete removes conversation and transcript", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.SaveConversation(ctx, newConversation("c1", "keep?", at(0))))
		require.NoError(t, repo.SaveConversation(ctx, newConversation("c2", "other", at(0))))
		require.NoError(t, repo.AddMessage(ctx, newMessage("m1", "c1", model.RoleUser, "hi", at(time.Second))))
		require.NoError(t, repo.AddMessage(ctx, newMessage("m2", "c2", model.RoleUser, "yo", at(time.Second))))

		require.NoError(t, repo.DeleteConversation(ctx, "c1"))

		_, err := repo.GetConversation(ctx, "c1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		msgs, err := repo.GetMessages(ctx, "c1")
		require.NoError(t, err)
		assert.Empty(t, msgs)
		msgs, err = repo.GetMessages(ctx, "c2")
		require.NoError(t, err)
		assert.Len(t, msgs, 1)
		n, err := repo.DeleteOrphanedMessages(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("delete unknown conversation", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.DeleteConversation(ctx, "nope")

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("delete all", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.SaveConversation(ctx, newConversation("c1", "a", at(0))))
		require.NoError(t, repo.SaveConversation(ctx, newConversation("c2", "b", at(0))))
		require.NoError(t, repo.AddMessage(ctx, newMessage("m1", "c1", model.RoleUser, "hi", at(time.Second))))

		require.NoError(t, repo.DeleteAll(ctx))

		list, err := repo.ListConversations(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
		msgs, err := repo.GetMessages(ctx, "c1")
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})
}
