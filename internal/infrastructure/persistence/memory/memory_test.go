package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mangopixel04/portfliomango/internal/domain/portfolio"
	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

var now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func TestDeviceStore(t *testing.T) {
	ctx := context.Background()
	s := NewDeviceStore()

	_, ok, err := s.Get(ctx, "dev-1", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "dev-1", "k", "v1"))
	require.NoError(t, s.Set(ctx, "dev-1", "other", "v2"))
	require.NoError(t, s.Set(ctx, "dev-2", "k", "x"))

	v, ok, _ := s.Get(ctx, "dev-1", "k")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	require.NoError(t, s.Remove(ctx, "dev-1", "k", "other", "missing"))
	_, ok, _ = s.Get(ctx, "dev-1", "k")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Devices())
}

func TestStorage_Seeded(t *testing.T) {
	ctx := context.Background()
	s := NewSeededStorage(now)

	skills, err := s.ListVisibleSkills(ctx)
	require.NoError(t, err)
	require.Len(t, skills, 4)
	assert.Equal(t, "3D & WebGL", skills[0].Name)

	featured, err := s.ListFeaturedProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, featured, 2)
}

func TestStorage_ContactLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewStorage().Repositories().Contacts

	first, _ := portfolio.NewContactMessage(portfolio.ContactInput{Name: "A", Email: "a@x.io", Message: "one"}, now)
	second, _ := portfolio.NewContactMessage(portfolio.ContactInput{Name: "B", Email: "b@x.io", Message: "two"}, now.Add(time.Minute))
	require.NoError(t, repo.CreateMessage(ctx, first))
	require.NoError(t, repo.CreateMessage(ctx, second))

	list, err := repo.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	updated, err := repo.UpdateMessageStatus(ctx, first.ID, portfolio.ContactReplied)
	require.NoError(t, err)
	assert.Equal(t, portfolio.ContactReplied, updated.Status)

	_, err = repo.UpdateMessageStatus(ctx, "missing", portfolio.ContactRead)
	assert.True(t, shared.IsNotFound(err))
}

func TestStorage_SkillsHiddenAndSorted(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()

	hidden := false
	a, _ := portfolio.NewSkill(portfolio.SkillInput{Name: "A", Category: "c", Proficiency: 1, SortOrder: 2})
	b, _ := portfolio.NewSkill(portfolio.SkillInput{Name: "B", Category: "c", Proficiency: 1, SortOrder: 1})
	c, _ := portfolio.NewSkill(portfolio.SkillInput{Name: "C", Category: "c", Proficiency: 1, IsVisible: &hidden})
	for _, sk := range []*portfolio.Skill{a, b, c} {
		require.NoError(t, s.CreateSkill(ctx, sk))
	}

	list, _ := s.ListVisibleSkills(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[0].Name)

	require.NoError(t, s.DeleteSkill(ctx, a.ID))
	assert.ErrorIs(t, s.DeleteSkill(ctx, a.ID), shared.ErrSkillNotFound)

	_, err := s.UpdateSkill(ctx, "missing", portfolio.SkillPatch{})
	assert.ErrorIs(t, err, shared.ErrSkillNotFound)
}

func TestStorage_ListEventsLimit(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	for i := 0; i < 5; i++ {
		e, _ := portfolio.NewAnalyticsEvent(portfolio.AnalyticsInput{EventType: "click"}, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, s.CreateEvent(ctx, e))
	}

	list, err := s.ListEvents(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, now.Add(4*time.Second), list[0].Timestamp)
}

func TestStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewSeededStorage(now)
	projects, _ := s.ListProjects(ctx)
	projects[0].Title = "mutated"

	again, _ := s.GetProject(ctx, projects[0].ID)
	assert.NotEqual(t, "mutated", again.Title)
}

func TestPresence(t *testing.T) {
	ctx := context.Background()
	clock := now
	p := NewPresence(5 * time.Minute)
	p.now = func() time.Time { return clock }

	require.NoError(t, p.Touch(ctx, "a"))
	require.NoError(t, p.Touch(ctx, "b"))
	require.NoError(t, p.Touch(ctx, ""))

	n, _ := p.LiveCount(ctx)
	assert.Equal(t, int64(2), n)

	clock = clock.Add(4 * time.Minute)
	require.NoError(t, p.Touch(ctx, "b"))
	clock = clock.Add(2 * time.Minute)

	n, _ = p.LiveCount(ctx)
	assert.Equal(t, int64(1), n)
}
