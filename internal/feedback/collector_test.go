package feedback

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/val3riia/languagemirror-bot/internal/errors"
	"github.com/val3riia/languagemirror-bot/models"
)

type stubUserRepo struct {
	bonusMarked []int64
	markErr     error
}

func (s *stubUserRepo) GetOrCreate(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.User, error) {
	return &models.User{TelegramID: telegramID}, nil
}

func (s *stubUserRepo) UpdateLanguageLevel(ctx context.Context, telegramID int64, level models.LanguageLevel) error {
	return nil
}

func (s *stubUserRepo) MarkFeedbackBonusUsed(ctx context.Context, telegramID int64) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.bonusMarked = append(s.bonusMarked, telegramID)
	return nil
}

func TestRecordValidRating(t *testing.T) {
	repo := NewMemoryRepository()
	collector := NewCollector(repo, &stubUserRepo{}, 3, nil)
	user := &models.User{TelegramID: 42, Username: "val"}

	rec, err := collector.Record(context.Background(), user, models.RatingHelpful, "")
	require.NoError(t, err)
	assert.Equal(t, models.RatingHelpful, rec.Rating)
	assert.Equal(t, "val", rec.Username)
	assert.False(t, rec.Flagged)

	stored, err := repo.List(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRecordInvalidRating(t *testing.T) {
	collector := NewCollector(NewMemoryRepository(), &stubUserRepo{}, 3, nil)
	_, err := collector.Record(context.Background(), &models.User{TelegramID: 42}, models.Rating("amazing"), "")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidRating, errors.GetCode(err))
}

func TestRecordFlagsShortComment(t *testing.T) {
	collector := NewCollector(NewMemoryRepository(), &stubUserRepo{}, 3, nil)
	user := &models.User{TelegramID: 42}

	rec, err := collector.Record(context.Background(), user, models.RatingOkay, "too short")
	require.NoError(t, err)
	assert.True(t, rec.Flagged, "two-word comment is below the three-word minimum")

	rec, err = collector.Record(context.Background(), user, models.RatingOkay, "this was really useful")
	require.NoError(t, err)
	assert.False(t, rec.Flagged)
}

func TestRecordEmptyCommentNotFlagged(t *testing.T) {
	collector := NewCollector(NewMemoryRepository(), &stubUserRepo{}, 3, nil)
	rec, err := collector.Record(context.Background(), &models.User{TelegramID: 42}, models.RatingNotHelpful, "   ")
	require.NoError(t, err)
	assert.False(t, rec.Flagged, "skipping the comment is fine, only short comments are flagged")
}

func TestRecordGrantsBonusOnce(t *testing.T) {
	users := &stubUserRepo{}
	var bonusCalls []int64
	onBonus := func(ctx context.Context, telegramID int64) error {
		bonusCalls = append(bonusCalls, telegramID)
		return nil
	}
	collector := NewCollector(NewMemoryRepository(), users, 3, onBonus)
	user := &models.User{TelegramID: 42}

	_, err := collector.Record(context.Background(), user, models.RatingHelpful, "the corrections really helped")
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, bonusCalls)
	assert.Equal(t, []int64{42}, users.bonusMarked)
	assert.True(t, user.FeedbackBonusUsed)

	// A second commented feedback earns nothing extra.
	_, err = collector.Record(context.Background(), user, models.RatingHelpful, "still very helpful today")
	require.NoError(t, err)
	assert.Len(t, bonusCalls, 1)
}

func TestRecordNoBonusForFlaggedComment(t *testing.T) {
	var bonusCalls int
	collector := NewCollector(NewMemoryRepository(), &stubUserRepo{}, 3, func(ctx context.Context, telegramID int64) error {
		bonusCalls++
		return nil
	})

	_, err := collector.Record(context.Background(), &models.User{TelegramID: 42}, models.RatingHelpful, "ok")
	require.NoError(t, err)
	assert.Zero(t, bonusCalls)
}

func TestRecordBonusMarkFailureKeepsFeedback(t *testing.T) {
	repo := NewMemoryRepository()
	users := &stubUserRepo{markErr: fmt.Errorf("db down")}
	collector := NewCollector(repo, users, 3, nil)
	user := &models.User{TelegramID: 42}

	_, err := collector.Record(context.Background(), user, models.RatingHelpful, "great practice session today")
	require.NoError(t, err, "feedback storage succeeds even when the bonus mark fails")
	assert.False(t, user.FeedbackBonusUsed)

	stored, _ := repo.List(context.Background(), nil, nil)
	assert.Len(t, stored, 1)
}
