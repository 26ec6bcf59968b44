package service_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/robalyx/tribunal/internal/database/service"
	"github.com/robalyx/tribunal/internal/database/types"
	"github.com/robalyx/tribunal/internal/database/types/enum"
	"github.com/robalyx/tribunal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	discordA = "123456789012345678"
	discordB = "223456789012345678"
	discordC = "323456789012345678"
)

func TestSubmit(t *testing.T) {
	t.Parallel()
	svc, clock := setupTest(t)
	ctx := t.Context()

	appeal := mustSubmit(t, svc, discordA)

	assert.True(t, strings.HasPrefix(appeal.ID, types.AppealIDPrefix))
	assert.Len(t, appeal.ID, len(types.AppealIDPrefix)+6)
	assert.Equal(t, enum.AppealStatusPending, appeal.Status)
	assert.Equal(t, enum.AppealPriorityNormal, appeal.Priority)
	assert.True(t, appeal.CreatedAt.Equal(clock.Now()))

	stored, err := svc.GetAppeal(ctx, appeal.ID)
	require.NoError(t, err)
	assert.Equal(t, discordA, stored.DiscordID)
	assert.Equal(t, "203.0.113.7", stored.IPAddress)
	assert.Empty(t, stored.AssignedTo)
	assert.False(t, stored.IsReviewed())

	history, err := svc.GetHistory(ctx, appeal.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, enum.HistoryActionCreated, history[0].Action)
	assert.Empty(t, history[0].OldValue)
	assert.Equal(t, "pending", history[0].NewValue)
	assert.Empty(t, history[0].PerformedBy)

	messages, err := svc.GetMessages(ctx, appeal.ID, false)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, enum.SenderTypeUser, messages[0].SenderType)
	assert.Equal(t, "I was hacked, please review.", messages[0].Message)
	assert.False(t, messages[0].IsInternal)
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*types.AppealSubmission)
		want   string
	}{
		{
			name:   "missing discord id",
			modify: func(s *types.AppealSubmission) { s.DiscordID = "" },
			want:   types.MsgMissingFields,
		},
		{
			name:   "blank message",
			modify: func(s *types.AppealSubmission) { s.AppealMessage = "   " },
			want:   types.MsgMissingFields,
		},
		{
			name:   "missing email",
			modify: func(s *types.AppealSubmission) { s.Email = "" },
			want:   types.MsgMissingFields,
		},
		{
			name:   "discord id too short",
			modify: func(s *types.AppealSubmission) { s.DiscordID = "1234567890123456" },
			want:   types.MsgInvalidDiscordID,
		},
		{
			name:   "discord id too long",
			modify: func(s *types.AppealSubmission) { s.DiscordID = "12345678901234567890" },
			want:   types.MsgInvalidDiscordID,
		},
		{
			name:   "discord id with letters",
			modify: func(s *types.AppealSubmission) { s.DiscordID = "12345678901234567a" },
			want:   types.MsgInvalidDiscordID,
		},
		{
			name:   "email without domain dot",
			modify: func(s *types.AppealSubmission) { s.Email = "someone@example" },
			want:   types.MsgInvalidEmail,
		},
		{
			name:   "email with whitespace",
			modify: func(s *types.AppealSubmission) { s.Email = "some one@example.com" },
			want:   types.MsgInvalidEmail,
		},
		{
			name: "missing fields checked before format",
			modify: func(s *types.AppealSubmission) {
				s.DiscordID = "abc"
				s.AppealMessage = ""
			},
			want: types.MsgMissingFields,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _ := setupTest(t)
			ctx := t.Context()

			sub := submission(discordA)
			tt.modify(sub)

			appeal, err := svc.Submit(ctx, sub)
			require.Error(t, err)
			assert.Nil(t, appeal)

			var validationErr *types.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.want, validationErr.Message)

			page, err := svc.List(ctx, types.AppealFilter{}, 0, 0)
			require.NoError(t, err)
			assert.Zero(t, page.Total)
		})
	}
}

func TestSubmitDuplicatePending(t *testing.T) {
	t.Parallel()
	svc, _ := setupTest(t)
	ctx := t.Context()

	first := mustSubmit(t, svc, discordA)

	_, err := svc.Submit(ctx, submission(discordA))
	var pendingErr *types.AlreadyPendingError
	require.ErrorAs(t, err, &pendingErr)
	assert.Equal(t, first.ID, pendingErr.AppealID)

	page, err := svc.List(ctx, types.AppealFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	// Another user is unaffected
	mustSubmit(t, svc, discordB)

	// Once the first appeal leaves pending a new one may be filed
	err = svc.Transition(ctx, first.ID, &types.AppealPatch{
		Status: utils.Ptr(enum.AppealStatusUnderReview),
	}, "staff-1")
	require.NoError(t, err)

	second := mustSubmit(t, svc, discordA)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSubmitIDCollision(t *testing.T) {
	t.Parallel()

	calls := 0
	ids := []string{"APL-AAAAAA", "APL-AAAAAA", "APL-BBBBBB"}
	svc, _ := setupTest(t, service.WithIDGenerator(func() (string, error) {
		id := ids[min(calls, len(ids)-1)]
		calls++
		return id, nil
	}))

	first := mustSubmit(t, svc, discordA)
	assert.Equal(t, "APL-AAAAAA", first.ID)

	second := mustSubmit(t, svc, discordB)
	assert.Equal(t, "APL-BBBBBB", second.ID)
}

func TestSubmitIDExhausted(t *testing.T) {
	t.Parallel()
	svc, _ := setupTest(t, service.WithIDGenerator(func() (string, error) {
		return "APL-SAME00", nil
	}))
	ctx := t.Context()

	mustSubmit(t, svc, discordA)

	_, err := svc.Submit(ctx, submission(discordB))
	var storageErr *types.StorageError
	require.ErrorAs(t, err, &storageErr)
	require.ErrorIs(t, err, types.ErrIDExhausted)
	assert.NotContains(t, err.Error(), "APL-SAME00")

	// Nothing from the failed submission is left behind
	page, err := svc.List(ctx, types.AppealFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestTransitionReviewStamping(t *testing.T) {
	t.Parallel()
	svc, clock := setupTest(t)
	ctx := t.Context()

	appeal := mustSubmit(t, svc, discordA)
	clock.Advance(90 * time.Minute)
	approvedAt := clock.Now()

	err := svc.Transition(ctx, appeal.ID, &types.AppealPatch{
		Status: utils.Ptr(enum.AppealStatusApproved),
	}, "staff-1")
	require.NoError(t, err)

	stored, err := svc.GetAppeal(ctx, appeal.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.AppealStatusApproved, stored.Status)
	assert.Equal(t, "staff-1", stored.ReviewedBy)
	assert.True(t, stored.ReviewedAt.Equal(approvedAt))
	assert.True(t, stored.UpdatedAt.Equal(approvedAt))

	history, err := svc.GetHistory(ctx, appeal.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, enum.HistoryActionStatusChanged, history[0].Action)
	assert.Equal(t, "pending", history[0].OldValue)
	assert.Equal(t, "approved", history[0].NewValue)
	assert.Equal(t, "staff-1", history[0].PerformedBy)
	assert.Equal(t, enum.HistoryActionCreated, history[1].Action)

	// Re-applying the same terminal status stamps again without a new entry
	clock.Advance(time.Hour)
	err = svc.Transition(ctx, appeal.ID, &types.AppealPatch{
		Status: utils.Ptr(enum.AppealStatusApproved),
	}, "staff-2")
	require.NoError(t, err)

	stored, err = svc.GetAppeal(ctx, appeal.ID)
	require.NoError(t, err)
	assert.Equal(t, "staff-2", stored.ReviewedBy)
	assert.True(t, stored.ReviewedAt.Equal(clock.Now()))

	history, err = svc.GetHistory(ctx, appeal.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestTransitionNonTerminalKeepsReview(t *testing.T) {
	t.Parallel()
	svc, _ := setupTest(t)
	ctx := t.Context()

	appeal := mustSubmit(t, svc, discordA)

	err := svc.Transition(ctx, appeal.ID, &types.AppealPatch{
		Status: utils.Ptr(enum.AppealStatusEscalated),
	}, "staff-1")
	require.NoError(t, err)

	stored, err := svc.GetAppeal(ctx, appeal.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.AppealStatusEscalated, stored.Status)
	assert.False(t, stored.IsReviewed())
	assert.Empty(t, stored.ReviewedBy)
}

func TestTransitionPriorityAndAssignment(t *testing.T) {
	t.Parallel()
	svc, _ := setupTest(t)
	ctx := t.Context()

	appeal := mustSubmit(t, svc, discordA)

	err := svc.Transition(ctx, appeal.ID, &types.AppealPatch{
		Priority:      utils.Ptr(enum.AppealPriorityUrgent),
		AssignedTo:    utils.Ptr("staff-7"),
		ReviewNote:    utils.Ptr("looks legitimate"),
		InternalNotes: utils.Ptr("checked alt accounts"),
	}, "staff-1")
	require.NoError(t, err)

	stored, err := svc.GetAppeal(ctx, appeal.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.AppealPriorityUrgent, stored.Priority)
	assert.Equal(t, "staff-7", stored.AssignedTo)
	assert.Equal(t, "looks legitimate", stored.ReviewNote)
	assert.Equal(t, "checked alt accounts", stored.InternalNotes)

	history, err := svc.GetHistory(ctx, appeal.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	actions := make(map[enum.HistoryAction]*types.AppealHistory)
	for _, entry := range history {
		actions[entry.Action] = entry
	}
	require.Contains(t, actions, enum.HistoryActionPriorityChanged)
	assert.Equal(t, "normal", actions[enum.HistoryActionPriorityChanged].OldValue)
	assert.Equal(t, "urgent", actions[enum.HistoryActionPriorityChanged].NewValue)
	require.Contains(t, actions, enum.HistoryActionAssigned)
	assert.Empty(t, actions[enum.HistoryActionAssigned].OldValue)
	assert.Equal(t, "staff-7", actions[enum.HistoryActionAssigned].NewValue)

	// Same values again record nothing
	err = svc.Transition(ctx, appeal.ID, &types.AppealPatch{
		Priority:   utils.Ptr(enum.AppealPriorityUrgent),
		AssignedTo: utils.Ptr("staff-7"),
	}, "staff-1")
	require.NoError(t, err)

	history, err = svc.GetHistory(ctx, appeal.ID)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	// Clearing the assignee is recorded
	err = svc.Transition(ctx, appeal.ID, &types.AppealPatch{AssignedTo: utils.Ptr("")}, "staff-1")
	require.NoError(t, err)

	stored, err = svc.GetAppeal(ctx, appeal.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.AssignedTo)

	history, err = svc.GetHistory(ctx, appeal.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, enum.HistoryActionAssigned, history[0].Action)
	assert.Equal(t, "staff-7", history[0].OldValue)
	assert.Empty(t, history[0].NewValue)
}

func TestTransitionErrors(t *testing.T) {
	t.Parallel()
	svc, _ := setupTest(t)
	ctx := t.Context()

	appeal := mustSubmit(t, svc, discordA)

	t.Run("empty patch is a no-op", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, svc.Transition(ctx, "APL-NOPE00", &types.AppealPatch{}, "staff-1"))
		require.NoError(t, svc.Transition(ctx, "APL-NOPE00", nil, "staff-1"))
	})

	t.Run("missing appeal", func(t *testing.T) {
		t.Parallel()
		err := svc.Transition(ctx, "APL-NOPE00", &types.AppealPatch{
			Status: utils.Ptr(enum.AppealStatusApproved),
		}, "staff-1")
		require.ErrorIs(t, err, types.ErrAppealNotFound)
	})

	t.Run("unknown status", func(t *testing.T) {
		t.Parallel()
		err := svc.Transition(ctx, appeal.ID, &types.AppealPatch{
			Status: utils.Ptr(enum.AppealStatus(99)),
		}, "staff-1")
		var validationErr *types.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("unknown priority", func(t *testing.T) {
		t.Parallel()
		err := svc.Transition(ctx, appeal.ID, &types.AppealPatch{
			Priority: utils.Ptr(enum.AppealPriority(-1)),
		}, "staff-1")
		var validationErr *types.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestUpdateWithReply(t *testing.T) {
	t.Parallel()
	svc, clock := setupTest(t)
	ctx := t.Context()

	appeal := mustSubmit(t, svc, discordA)
	clock.Advance(time.Hour)

	reply := &types.AppealMessage{
		SenderType: enum.SenderTypeStaff,
		SenderID:   "staff-1",
		SenderName: "Mod",
		Message:    "Looking into it",
	}
	require.NoError(t, svc.Update(ctx, appeal.ID, &types.AppealPatch{
		Status: utils.Ptr(enum.AppealStatusUnderReview),
	}, reply, "staff-1"))

	stored, err := svc.GetAppeal(ctx, appeal.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.AppealStatusUnderReview, stored.Status)

	messages, err := svc.GetMessages(ctx, appeal.ID, true)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, appeal.ID, messages[1].AppealID)
	assert.Equal(t, "Looking into it", messages[1].Message)
	assert.True(t, messages[1].CreatedAt.Equal(stored.UpdatedAt))

	t.Run("reply alone", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, svc.Update(ctx, appeal.ID, nil, &types.AppealMessage{
			SenderType: enum.SenderTypeStaff,
			Message:    "Note for the team",
			IsInternal: true,
		}, "staff-2"))
	})

	t.Run("reply to missing appeal", func(t *testing.T) {
		t.Parallel()
		err := svc.Update(ctx, "APL-NOPE00", nil, &types.AppealMessage{
			SenderType: enum.SenderTypeStaff,
			Message:    "hello",
		}, "staff-1")
		require.ErrorIs(t, err, types.ErrAppealNotFound)

		messages, err := svc.GetMessages(ctx, "APL-NOPE00", true)
		require.NoError(t, err)
		assert.Empty(t, messages)
	})

	t.Run("invalid reply leaves the appeal untouched", func(t *testing.T) {
		t.Parallel()
		other := mustSubmit(t, svc, discordB)
		err := svc.Update(ctx, other.ID, &types.AppealPatch{
			Status: utils.Ptr(enum.AppealStatusApproved),
		}, &types.AppealMessage{SenderType: enum.SenderTypeStaff, Message: "  "}, "staff-1")
		var validationErr *types.ValidationError
		require.ErrorAs(t, err, &validationErr)

		stored, err := svc.GetAppeal(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, enum.AppealStatusPending, stored.Status)
	})
}

func TestUpdateRollsBackPatchWhenReplyFails(t *testing.T) {
	t.Parallel()
	client, _ := setupTestClient(t)
	svc := client.Service().Appeal()
	ctx := t.Context()

	appeal := mustSubmit(t, svc, discordA)

	_, err := client.DB().ExecContext(ctx, `CREATE TRIGGER reject_reply BEFORE INSERT ON appeal_messages
		WHEN NEW.message = 'rejected' BEGIN SELECT RAISE(ABORT, 'reply rejected'); END`)
	require.NoError(t, err)

	err = svc.Update(ctx, appeal.ID, &types.AppealPatch{
		Status:   utils.Ptr(enum.AppealStatusApproved),
		Priority: utils.Ptr(enum.AppealPriorityHigh),
	}, &types.AppealMessage{
		SenderType: enum.SenderTypeStaff,
		Message:    "rejected",
	}, "staff-1")
	var storageErr *types.StorageError
	require.ErrorAs(t, err, &storageErr)

	stored, err := svc.GetAppeal(ctx, appeal.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.AppealStatusPending, stored.Status)
	assert.Equal(t, enum.AppealPriorityNormal, stored.Priority)
	assert.False(t, stored.IsReviewed())

	history, err := svc.GetHistory(ctx, appeal.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestClose(t *testing.T) {
	t.Parallel()
	svc, clock := setupTest(t)
	ctx := t.Context()

	appeal := mustSubmit(t, svc, discordA)
	require.NoError(t, svc.Transition(ctx, appeal.ID, &types.AppealPatch{
		InternalNotes: utils.Ptr("first note"),
	}, "staff-1"))

	clock.Advance(time.Hour)
	require.NoError(t, svc.Close(ctx, appeal.ID, "admin-1", "duplicate of another appeal"))

	stored, err := svc.GetAppeal(ctx, appeal.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.AppealStatusDenied, stored.Status)
	assert.Equal(t, "admin-1", stored.ReviewedBy)
	assert.True(t, stored.ReviewedAt.Equal(clock.Now()))
	assert.Equal(t,
		fmt.Sprintf("first note\n[closed by admin-1 at %s]: duplicate of another appeal",
			clock.Now().Format(time.RFC3339)),
		stored.InternalNotes)

	history, err := svc.GetHistory(ctx, appeal.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	actions := []enum.HistoryAction{history[0].Action, history[1].Action, history[2].Action}
	assert.ElementsMatch(t, []enum.HistoryAction{
		enum.HistoryActionDeleted,
		enum.HistoryActionStatusChanged,
		enum.HistoryActionCreated,
	}, actions)

	// Closing a denied appeal adds only the DELETED entry
	require.NoError(t, svc.Close(ctx, appeal.ID, "admin-1", "again"))
	history, err = svc.GetHistory(ctx, appeal.ID)
	require.NoError(t, err)
	assert.Len(t, history, 4)

	require.ErrorIs(t, svc.Close(ctx, "APL-NOPE00", "admin-1", ""), types.ErrAppealNotFound)
}

func TestMessagesVisibility(t *testing.T) {
	t.Parallel()
	svc, clock := setupTest(t)
	ctx := t.Context()

	appeal := mustSubmit(t, svc, discordA)

	clock.Advance(time.Minute)
	_, err := svc.AddMessage(ctx, &types.AppealMessage{
		AppealID:   appeal.ID,
		SenderType: enum.SenderTypeStaff,
		SenderID:   "staff-1",
		SenderName: "Moderator",
		Message:    "alt account confirmed",
		IsInternal: true,
	})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	reply, err := svc.AddMessage(ctx, &types.AppealMessage{
		AppealID:   appeal.ID,
		SenderType: enum.SenderTypeStaff,
		SenderID:   "staff-1",
		SenderName: "Moderator",
		Message:    "We are looking into it.",
	})
	require.NoError(t, err)
	assert.NotZero(t, reply.ID)
	assert.True(t, reply.CreatedAt.Equal(clock.Now()))

	public, err := svc.GetMessages(ctx, appeal.ID, false)
	require.NoError(t, err)
	require.Len(t, public, 2)
	for _, message := range public {
		assert.False(t, message.IsInternal)
	}
	assert.Equal(t, "We are looking into it.", public[1].Message)

	all, err := svc.GetMessages(ctx, appeal.ID, true)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, enum.SenderTypeUser, all[0].SenderType)
	assert.True(t, all[1].IsInternal)
	assert.Equal(t, "We are looking into it.", all[2].Message)
}

func TestAddMessageValidation(t *testing.T) {
	t.Parallel()
	svc, _ := setupTest(t)
	ctx := t.Context()

	_, err := svc.AddMessage(ctx, &types.AppealMessage{
		AppealID:   "APL-ANY000",
		SenderType: enum.SenderTypeStaff,
		Message:    "  ",
	})
	var validationErr *types.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, types.MsgMissingMessage, validationErr.Message)

	_, err = svc.AddMessage(ctx, &types.AppealMessage{
		AppealID:   "APL-ANY000",
		SenderType: enum.SenderType(42),
		Message:    "hello",
	})
	require.ErrorAs(t, err, &validationErr)

	// Messages for unknown appeals are accepted
	_, err = svc.AddMessage(ctx, &types.AppealMessage{
		AppealID:   "APL-ANY000",
		SenderType: enum.SenderTypeSystem,
		Message:    "orphan",
	})
	require.NoError(t, err)
}

func TestListOrdering(t *testing.T) {
	t.Parallel()
	svc, clock := setupTest(t)
	ctx := t.Context()

	ids := []string{
		"100000000000000001",
		"100000000000000002",
		"100000000000000003",
		"100000000000000004",
		"100000000000000005",
	}
	priorities := []enum.AppealPriority{
		enum.AppealPriorityLow,
		enum.AppealPriorityNormal,
		enum.AppealPriorityUrgent,
		enum.AppealPriorityHigh,
		enum.AppealPriorityNormal,
	}

	created := make([]*types.Appeal, len(ids))
	for i, discordID := range ids {
		clock.Advance(time.Minute)
		created[i] = mustSubmit(t, svc, discordID)
		if priorities[i] != enum.AppealPriorityNormal {
			require.NoError(t, svc.Transition(ctx, created[i].ID, &types.AppealPatch{
				Priority: utils.Ptr(priorities[i]),
			}, "staff-1"))
		}
	}

	page, err := svc.List(ctx, types.AppealFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, service.DefaultListLimit, page.Limit)
	require.Len(t, page.Appeals, 5)

	got := make([]string, len(page.Appeals))
	for i, appeal := range page.Appeals {
		got[i] = appeal.ID
	}
	assert.Equal(t, []string{
		created[2].ID, // urgent
		created[3].ID, // high
		created[4].ID, // normal, newest
		created[1].ID, // normal
		created[0].ID, // low
	}, got)

	// Pagination keeps the filtered total
	page, err = svc.List(ctx, types.AppealFilter{}, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Appeals, 2)
	assert.Equal(t, created[3].ID, page.Appeals[0].ID)
	assert.Equal(t, created[4].ID, page.Appeals[1].ID)
}

func TestListFilters(t *testing.T) {
	t.Parallel()
	svc, _ := setupTest(t)
	ctx := t.Context()

	a := mustSubmit(t, svc, discordA)
	b := mustSubmit(t, svc, discordB)
	c := mustSubmit(t, svc, discordC)

	require.NoError(t, svc.Transition(ctx, b.ID, &types.AppealPatch{
		Status:     utils.Ptr(enum.AppealStatusUnderReview),
		AssignedTo: utils.Ptr("staff-9"),
	}, "staff-1"))
	require.NoError(t, svc.Transition(ctx, c.ID, &types.AppealPatch{
		Priority: utils.Ptr(enum.AppealPriorityHigh),
	}, "staff-1"))

	tests := []struct {
		name   string
		filter types.AppealFilter
		want   []string
	}{
		{"no status", types.AppealFilter{}, []string{c.ID, b.ID, a.ID}},
		{"status", types.AppealFilter{Status: utils.Ptr(enum.AppealStatusPending)}, []string{c.ID, a.ID}},
		{"priority", types.AppealFilter{Priority: utils.Ptr(enum.AppealPriorityHigh)}, []string{c.ID}},
		{"assignee", types.AppealFilter{AssignedTo: "staff-9"}, []string{b.ID}},
		{"search email case-insensitive", types.AppealFilter{Search: "APPELLANT5678"}, []string{c.ID, b.ID, a.ID}},
		{"search discord id", types.AppealFilter{Search: "2234567"}, []string{b.ID}},
		{"search appeal id", types.AppealFilter{Search: strings.ToLower(a.ID)}, []string{a.ID}},
		{"search combined with status", types.AppealFilter{
			Status: utils.Ptr(enum.AppealStatusPending),
			Search: "2234567",
		}, []string{}},
		{"search wildcard is literal", types.AppealFilter{Search: "%"}, []string{}},
		{"search underscore is literal", types.AppealFilter{Search: "_"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			page, err := svc.List(ctx, tt.filter, 0, 0)
			require.NoError(t, err)

			got := make([]string, 0, len(page.Appeals))
			for _, appeal := range page.Appeals {
				got = append(got, appeal.ID)
			}
			assert.ElementsMatch(t, tt.want, got)
			assert.Equal(t, len(tt.want), page.Total)
		})
	}

	_, err := svc.List(ctx, types.AppealFilter{Status: utils.Ptr(enum.AppealStatus(99))}, 0, 0)
	var validationErr *types.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestListLimits(t *testing.T) {
	t.Parallel()
	svc, _ := setupTest(t)
	ctx := t.Context()

	page, err := svc.List(ctx, types.AppealFilter{}, 1000, -5)
	require.NoError(t, err)
	assert.Equal(t, service.MaxListLimit, page.Limit)
	assert.Zero(t, page.Offset)
	assert.Empty(t, page.Appeals)
}

func TestStats(t *testing.T) {
	t.Parallel()
	svc, clock := setupTest(t)
	ctx := t.Context()

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &types.AppealStats{}, stats)

	a := mustSubmit(t, svc, discordA)
	clock.Advance(2 * time.Hour)
	require.NoError(t, svc.Transition(ctx, a.ID, &types.AppealPatch{
		Status: utils.Ptr(enum.AppealStatusApproved),
	}, "staff-1"))

	b := mustSubmit(t, svc, discordB)
	clock.Advance(4 * time.Hour)
	require.NoError(t, svc.Transition(ctx, b.ID, &types.AppealPatch{
		Status: utils.Ptr(enum.AppealStatusApproved),
	}, "staff-1"))

	c := mustSubmit(t, svc, discordC)
	require.NoError(t, svc.Transition(ctx, c.ID, &types.AppealPatch{
		Status: utils.Ptr(enum.AppealStatusEscalated),
	}, "staff-1"))
	mustSubmit(t, svc, "423456789012345678")

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Approved)
	assert.Equal(t, 1, stats.Escalated)
	assert.Equal(t, 1, stats.Pending)
	assert.Zero(t, stats.Denied)
	assert.Zero(t, stats.UnderReview)
	assert.InDelta(t, 3.0, stats.AvgResponseTime, 1e-9)
}

func TestStatsWithoutReviews(t *testing.T) {
	t.Parallel()
	svc, _ := setupTest(t)
	ctx := t.Context()

	mustSubmit(t, svc, discordA)
	mustSubmit(t, svc, discordB)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Pending)
	assert.Zero(t, stats.AvgResponseTime)
}

func TestStatsCache(t *testing.T) {
	t.Parallel()

	cache := &mockStatsCache{}
	svc, _ := setupTest(t, service.WithStatsCache(cache))
	ctx := t.Context()

	cached := &types.AppealStats{Total: 42, Pending: 42}
	cache.On("GetStats", mock.Anything).Return(cached, true, nil).Once()

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Same(t, cached, stats)

	// A miss computes and stores fresh stats
	cache.On("GetStats", mock.Anything).Return(nil, false, nil).Once()
	cache.On("SetStats", mock.Anything, mock.MatchedBy(func(s *types.AppealStats) bool {
		return s.Total == 0
	})).Return(nil).Once()

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)

	// Cache failures fall back to the store
	cache.On("GetStats", mock.Anything).Return(nil, false, errors.New("connection refused")).Once()
	cache.On("SetStats", mock.Anything, mock.Anything).Return(errors.New("connection refused")).Once()

	_, err = svc.Stats(ctx)
	require.NoError(t, err)

	// Mutations invalidate
	cache.On("InvalidateStats", mock.Anything).Return(nil).Once()
	mustSubmit(t, svc, discordA)

	cache.AssertExpectations(t)
}

func TestStatsSkipsStaleWriteBack(t *testing.T) {
	t.Parallel()

	cache := &mockStatsCache{}
	svc, _ := setupTest(t, service.WithStatsCache(cache))
	ctx := t.Context()

	// A submission commits while the snapshot is being computed
	cache.On("InvalidateStats", mock.Anything).Return(nil).Once()
	cache.On("GetStats", mock.Anything).Return(nil, false, nil).Once().Run(func(mock.Arguments) {
		mustSubmit(t, svc, discordA)
	})

	_, err := svc.Stats(ctx)
	require.NoError(t, err)
	cache.AssertNotCalled(t, "SetStats", mock.Anything, mock.Anything)

	// A quiet computation is stored
	cache.On("GetStats", mock.Anything).Return(nil, false, nil).Once()
	cache.On("SetStats", mock.Anything, mock.MatchedBy(func(s *types.AppealStats) bool {
		return s.Total == 1 && s.Pending == 1
	})).Return(nil).Once()

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)

	cache.AssertExpectations(t)
}

func TestNotifications(t *testing.T) {
	t.Parallel()

	notifier := &mockNotifier{}
	svc, _ := setupTest(t, service.WithNotifier(notifier))
	ctx := t.Context()

	notifier.On("AppealSubmitted", mock.Anything, mock.MatchedBy(func(a *types.Appeal) bool {
		return a.DiscordID == discordA
	})).Once()
	appeal := mustSubmit(t, svc, discordA)

	// Non-escalating transitions stay silent
	require.NoError(t, svc.Transition(ctx, appeal.ID, &types.AppealPatch{
		Status: utils.Ptr(enum.AppealStatusUnderReview),
	}, "staff-1"))

	notifier.On("AppealEscalated", mock.Anything, mock.MatchedBy(func(a *types.Appeal) bool {
		return a.ID == appeal.ID && a.Status == enum.AppealStatusEscalated
	}), "staff-1").Once()
	require.NoError(t, svc.Transition(ctx, appeal.ID, &types.AppealPatch{
		Status: utils.Ptr(enum.AppealStatusEscalated),
	}, "staff-1"))

	// Escalating an escalated appeal is not a change
	require.NoError(t, svc.Transition(ctx, appeal.ID, &types.AppealPatch{
		Status: utils.Ptr(enum.AppealStatusEscalated),
	}, "staff-1"))

	// Failed submissions are not announced
	invalid := submission(discordB)
	invalid.Email = "not-an-email"
	_, err := svc.Submit(ctx, invalid)
	require.Error(t, err)

	notifier.AssertExpectations(t)
}

func TestGetFullAppeal(t *testing.T) {
	t.Parallel()
	svc, clock := setupTest(t)
	ctx := t.Context()

	appeal := mustSubmit(t, svc, "80351110224678912")

	clock.Advance(time.Minute)
	_, err := svc.AddMessage(ctx, &types.AppealMessage{
		AppealID:   appeal.ID,
		SenderType: enum.SenderTypeStaff,
		Message:    "internal remark",
		IsInternal: true,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Transition(ctx, appeal.ID, &types.AppealPatch{
		Priority: utils.Ptr(enum.AppealPriorityHigh),
	}, "staff-1"))

	full, err := svc.GetFullAppeal(ctx, appeal.ID)
	require.NoError(t, err)
	assert.Equal(t, appeal.ID, full.ID)
	assert.Len(t, full.Messages, 2)
	assert.Len(t, full.History, 2)
	assert.Equal(t, 2015, full.AccountCreatedAt.Year())

	_, err = svc.GetFullAppeal(ctx, "APL-NOPE00")
	require.ErrorIs(t, err, types.ErrAppealNotFound)
}

func TestGenerateAppealID(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for range 100 {
		id, err := service.GenerateAppealID()
		require.NoError(t, err)
		require.Regexp(t, `^APL-[0-9A-Z]{6}$`, id)
		seen[id] = struct{}{}
	}
	assert.Greater(t, len(seen), 95)
}
