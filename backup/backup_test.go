package backup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/researchaccelerator-hub/manga-notifier/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseSequence(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		want    int
		wantErr bool
	}{
		{name: "canonical", title: "Backup n°42", want: 42},
		{name: "space after marker", title: "Backup n° 7", want: 7},
		{name: "hash prefix", title: "Backup #12", want: 12},
		{name: "bare number", title: "Backup 3", want: 3},
		{name: "trailing punctuation", title: "Backup 9.", want: 9},
		{name: "first number wins", title: "Backup 4 of 10", want: 4},
		{name: "negative ignored", title: "Backup -2", wantErr: true},
		{name: "no number", title: "Backup", wantErr: true},
		{name: "empty", title: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSequence(tt.title)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoSequence)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatTitleRoundTrip(t *testing.T) {
	assert.Equal(t, "Backup n°43", FormatTitle(43))

	n, err := ParseSequence(FormatTitle(128))
	require.NoError(t, err)
	assert.Equal(t, 128, n)
}

func TestChannelSequence_Next(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		last *model.ChatMessage
		want int
	}{
		{
			name: "continues from last backup",
			last: &model.ChatMessage{ID: "m1", Embeds: []model.Embed{{Title: "Backup n°42"}}},
			want: 43,
		},
		{name: "empty channel", last: nil, want: 1},
		{name: "last message without embed", last: &model.ChatMessage{ID: "m2", Content: "hello"}, want: 1},
		{
			name: "unparsable title",
			last: &model.ChatMessage{ID: "m3", Embeds: []model.Embed{{Title: "Archive"}}},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messenger := new(MockMessenger)
			if tt.last == nil {
				messenger.On("LastMessage", mock.Anything, "backup").Return(nil, nil)
			} else {
				messenger.On("LastMessage", mock.Anything, "backup").Return(tt.last, nil)
			}

			got, err := NewChannelSequence(messenger, "backup").Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChannelSequence_ReadError(t *testing.T) {
	messenger := new(MockMessenger)
	messenger.On("LastMessage", mock.Anything, "backup").Return(nil, errors.New("forbidden"))

	_, err := NewChannelSequence(messenger, "backup").Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
}

func TestDaprSequence_SeedsFromChannel(t *testing.T) {
	messenger := new(MockMessenger)
	messenger.On("LastMessage", mock.Anything, "backup").
		Return(&model.ChatMessage{Embeds: []model.Embed{{Title: "Backup n°10"}}}, nil)

	counter := &MockCounter{seedOnCall: true}
	counter.On("Increment", mock.Anything).Return(0, nil)

	seq := NewDaprSequence(counter, NewChannelSequence(messenger, "backup"))
	got, err := seq.Next(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 11, got)
	messenger.AssertExpectations(t)
}

func TestDaprSequence_UsesStoredCounter(t *testing.T) {
	messenger := new(MockMessenger)
	counter := new(MockCounter)
	counter.On("Increment", mock.Anything).Return(57, nil)

	seq := NewDaprSequence(counter, NewChannelSequence(messenger, "backup"))
	got, err := seq.Next(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 57, got)
	messenger.AssertNotCalled(t, "LastMessage", mock.Anything, mock.Anything)
}

func TestDaprSequence_Error(t *testing.T) {
	counter := new(MockCounter)
	counter.On("Increment", mock.Anything).Return(0, errors.New("conflict"))

	_, err := NewDaprSequence(counter, NewChannelSequence(new(MockMessenger), "backup")).Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to increment backup counter")
}

func newTestRecovery(messenger *MockMessenger, channel *model.Channel) *Recovery {
	r := NewRecovery(messenger, channel, NewChannelSequence(messenger, "backup"), 0)
	r.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestRecovery_ArchiveNumbersAfterLastBackup(t *testing.T) {
	messenger := new(MockMessenger)
	messenger.On("LastMessage", mock.Anything, "backup").
		Return(&model.ChatMessage{Embeds: []model.Embed{{Title: "Backup n°42"}}}, nil)
	messenger.On("SendEmbed", mock.Anything, "backup", mock.Anything).Return(nil)

	r := newTestRecovery(messenger, &model.Channel{ID: "backup", Name: "backup"})
	record, err := r.Archive(context.Background(), []string{"first", "second", "third"})

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 43, record.Sequence)

	messenger.AssertCalled(t, "SendEmbed", mock.Anything, "backup", model.Embed{
		Title:       "Backup n°43",
		Description: "first\nsecond\nthird",
		Color:       DefaultColor,
		Timestamp:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
}

func TestRecovery_FirstBackup(t *testing.T) {
	messenger := new(MockMessenger)
	messenger.On("LastMessage", mock.Anything, "backup").Return(nil, nil)
	messenger.On("SendEmbed", mock.Anything, "backup", mock.Anything).Return(nil)

	record, err := newTestRecovery(messenger, &model.Channel{ID: "backup"}).Archive(context.Background(), []string{"only"})

	require.NoError(t, err)
	assert.Equal(t, 1, record.Sequence)
	embed := messenger.Calls[1].Arguments.Get(2).(model.Embed)
	assert.Equal(t, "Backup n°1", embed.Title)
	assert.Equal(t, "only", embed.Description)
}

func TestRecovery_DisabledWithoutChannel(t *testing.T) {
	messenger := new(MockMessenger)

	record, err := newTestRecovery(messenger, nil).Archive(context.Background(), []string{"lost"})

	require.NoError(t, err)
	assert.Nil(t, record)
	messenger.AssertNotCalled(t, "SendEmbed", mock.Anything, mock.Anything, mock.Anything)
	messenger.AssertNotCalled(t, "LastMessage", mock.Anything, mock.Anything)
}

func TestRecovery_SendError(t *testing.T) {
	messenger := new(MockMessenger)
	messenger.On("LastMessage", mock.Anything, "backup").Return(nil, nil)
	messenger.On("SendEmbed", mock.Anything, "backup", mock.Anything).Return(errors.New("missing access"))

	_, err := newTestRecovery(messenger, &model.Channel{ID: "backup"}).Archive(context.Background(), []string{"x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to post backup n°1")
}

func TestRecovery_ComposeTruncatesLongContent(t *testing.T) {
	r := NewRecovery(new(MockMessenger), &model.Channel{ID: "backup"}, nil, 0x123456)
	record := &model.BackupRecord{Sequence: 2, Content: strings.Repeat("é", maxDescriptionLength+50)}

	embed := r.Compose(record)

	assert.Equal(t, 0x123456, embed.Color)
	assert.Equal(t, maxDescriptionLength, len([]rune(embed.Description)))
	assert.True(t, strings.HasSuffix(embed.Description, "…"))
}
