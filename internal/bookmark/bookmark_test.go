package bookmark

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_storage "github.com/at-ishikawa/offlinedict/internal/mocks/storage"
	"github.com/at-ishikawa/offlinedict/internal/storage"
)

const testKey = "akha_bookmarks"

func TestNewSet(t *testing.T) {
	set := NewSet("c", "a", "", "c")
	assert.Equal(t, []string{"a", "c"}, set.IDs())
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains("a"))
	assert.False(t, set.Contains(""))

	var zero Set
	assert.False(t, zero.Contains("a"))
	assert.Empty(t, zero.IDs())
}

func TestPersistence_Load(t *testing.T) {
	tests := []struct {
		name    string
		stored  *string
		wantIDs []string
	}{
		{
			name:    "no prior state",
			stored:  nil,
			wantIDs: []string{},
		},
		{
			name:    "stored array",
			stored:  ptr(`["b","a"]`),
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "malformed json",
			stored:  ptr(`["a",`),
			wantIDs: []string{},
		},
		{
			name:    "wrong json type",
			stored:  ptr(`{"a":true}`),
			wantIDs: []string{},
		},
		{
			name:    "null",
			stored:  ptr(`null`),
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.stored != nil {
				require.NoError(t, os.WriteFile(filepath.Join(dir, testKey+".json"), []byte(*tt.stored), 0644))
			}

			persistence := NewPersistence(storage.NewFileStorage(dir), testKey)
			got := persistence.Load(context.Background())
			assert.Equal(t, tt.wantIDs, got.IDs())
		})
	}
}

func TestPersistence_Load_StorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_storage.NewMockKeyValueStore(ctrl)
	store.EXPECT().Get(gomock.Any(), testKey).Return(nil, &storage.StorageError{Op: "get", Key: testKey, Err: errors.New("disk failure")})

	persistence := NewPersistence(store, testKey)
	got := persistence.Load(context.Background())
	assert.Equal(t, 0, got.Len())
}

func TestPersistence_Toggle(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	persistence := NewPersistence(storage.NewFileStorage(dir), testKey)
	persistence.Load(ctx)

	set, added, err := persistence.Toggle(ctx, "c")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"c"}, set.IDs())

	set, added, err = persistence.Toggle(ctx, "a")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"a", "c"}, set.IDs())

	stored, err := os.ReadFile(filepath.Join(dir, testKey+".json"))
	require.NoError(t, err)
	assert.JSONEq(t, `["a","c"]`, string(stored))

	set, added, err = persistence.Toggle(ctx, "c")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, []string{"a"}, set.IDs())
}

func TestPersistence_Toggle_TwiceRestores(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		id      string
	}{
		{
			name:    "remove then add",
			initial: `["a","b","c"]`,
			id:      "a",
		},
		{
			name:    "add then remove",
			initial: `["a","c"]`,
			id:      "b",
		},
		{
			name:    "empty set",
			initial: `[]`,
			id:      "z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewFileStorage(t.TempDir())
			require.NoError(t, store.Set(ctx, testKey, []byte(tt.initial)))

			persistence := NewPersistence(store, testKey)
			original := persistence.Load(ctx)
			before, err := store.Get(ctx, testKey)
			require.NoError(t, err)

			_, _, err = persistence.Toggle(ctx, tt.id)
			require.NoError(t, err)
			got, _, err := persistence.Toggle(ctx, tt.id)
			require.NoError(t, err)

			assert.Equal(t, original.IDs(), got.IDs())
			after, err := store.Get(ctx, testKey)
			require.NoError(t, err)
			assert.Equal(t, string(before), string(after))
		})
	}
}

func TestPersistence_Toggle_NormalizesStoredValue(t *testing.T) {
	tests := []struct {
		name    string
		initial *string
		want    string
	}{
		{
			name:    "unsorted with duplicates",
			initial: ptr(`["b","a","b"]`),
			want:    `["a","b"]`,
		},
		{
			name: "missing key",
			want: `[]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewFileStorage(t.TempDir())
			if tt.initial != nil {
				require.NoError(t, store.Set(ctx, testKey, []byte(*tt.initial)))
			}
			persistence := NewPersistence(store, testKey)
			original := persistence.Load(ctx)

			_, _, err := persistence.Toggle(ctx, "c")
			require.NoError(t, err)
			got, _, err := persistence.Toggle(ctx, "c")
			require.NoError(t, err)

			assert.Equal(t, original.IDs(), got.IDs())
			after, err := store.Get(ctx, testKey)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(after))
		})
	}
}

func TestPersistence_Toggle_SurvivesRestart(t *testing.T) {
	tests := []struct {
		name        string
		initial     []string
		toggle      string
		wantPresent bool
	}{
		{
			name:        "added",
			initial:     []string{"a"},
			toggle:      "b",
			wantPresent: true,
		},
		{
			name:        "removed",
			initial:     []string{"a", "b"},
			toggle:      "b",
			wantPresent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()

			persistence := NewPersistence(storage.NewFileStorage(dir), testKey)
			for _, id := range tt.initial {
				_, _, err := persistence.Toggle(ctx, id)
				require.NoError(t, err)
			}
			_, added, err := persistence.Toggle(ctx, tt.toggle)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPresent, added)

			restarted := NewPersistence(storage.NewFileStorage(dir), testKey)
			assert.Equal(t, tt.wantPresent, restarted.Load(ctx).Contains(tt.toggle))
		})
	}
}

func TestPersistence_Toggle_StoreFailure(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := mock_storage.NewMockKeyValueStore(ctrl)
	store.EXPECT().Get(gomock.Any(), testKey).Return([]byte(`["a"]`), nil)
	store.EXPECT().Set(gomock.Any(), testKey, []byte(`["a","b"]`)).Return(&storage.StorageError{Op: "set", Key: testKey, Err: errors.New("read-only")})

	persistence := NewPersistence(store, testKey)
	set, added, err := persistence.Toggle(ctx, "b")

	var storageErr *storage.StorageError
	assert.True(t, errors.As(err, &storageErr))
	assert.False(t, added)
	assert.Equal(t, []string{"a"}, set.IDs())
	assert.Equal(t, []string{"a"}, persistence.Current(ctx).IDs())
}

func TestPersistence_Toggle_EmptyID(t *testing.T) {
	persistence := NewPersistence(storage.NewFileStorage(t.TempDir()), testKey)
	_, _, err := persistence.Toggle(context.Background(), "")
	assert.Error(t, err)
}

func ptr(s string) *string {
	return &s
}
