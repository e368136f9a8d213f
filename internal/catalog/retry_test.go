package catalog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/offlinedict/internal/dictionary"
	mock_sheet "github.com/at-ishikawa/offlinedict/internal/mocks/sheet"
)

func TestSyncWithRetry(t *testing.T) {
	fetchErr := &dictionary.FetchError{URL: "https://example.com", Err: errors.New("offline")}

	tests := []struct {
		name        string
		attempts    uint
		setup       func(source *mock_sheet.MockSource)
		wantErr     bool
		wantCount   int
		wantRetries int
	}{
		{
			name:     "succeeds after a fetch failure",
			attempts: 3,
			setup: func(source *mock_sheet.MockSource) {
				gomock.InOrder(
					source.EXPECT().FetchEntries(gomock.Any()).Return(nil, fetchErr),
					source.EXPECT().FetchEntries(gomock.Any()).Return(dictionary.Collection{entryA}, nil),
				)
			},
			wantCount:   1,
			wantRetries: 1,
		},
		{
			name:     "gives up after attempts",
			attempts: 2,
			setup: func(source *mock_sheet.MockSource) {
				source.EXPECT().FetchEntries(gomock.Any()).Return(nil, fetchErr).Times(2)
			},
			wantErr:     true,
			wantRetries: 1,
		},
		{
			name:     "single attempt is not retried",
			attempts: 1,
			setup: func(source *mock_sheet.MockSource) {
				source.EXPECT().FetchEntries(gomock.Any()).Return(nil, fetchErr).Times(1)
			},
			wantErr: true,
		},
		{
			name:     "does not retry a parse error",
			attempts: 3,
			setup: func(source *mock_sheet.MockSource) {
				source.EXPECT().FetchEntries(gomock.Any()).Return(nil, &dictionary.ParseError{Reason: "missing header"}).Times(1)
			},
			wantErr: true,
		},
		{
			name:     "zero attempts still tries once",
			attempts: 0,
			setup: func(source *mock_sheet.MockSource) {
				source.EXPECT().FetchEntries(gomock.Any()).Return(dictionary.Collection{entryA}, nil).Times(1)
			},
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			source := mock_sheet.NewMockSource(ctrl)
			tt.setup(source)

			var logs bytes.Buffer
			defaultLogger := slog.Default()
			slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
			defer slog.SetDefault(defaultLogger)

			store := NewStore(source)
			err := SyncWithRetry(context.Background(), store, tt.attempts, time.Millisecond)
			assert.Equal(t, tt.wantRetries, strings.Count(logs.String(), `msg="retrying sync"`))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Len(t, store.Entries(), tt.wantCount)
		})
	}
}
