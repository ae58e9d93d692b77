package services

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"relocate/internal/config"
	"relocate/internal/domain/models"
	"relocate/internal/mocks"
	"relocate/internal/relocate"
	"relocate/internal/storage"
)

func newTestStore() (*storage.StorageMemory, int64, int64) {
	mem := storage.NewStorageMemory(true)
	post := mem.AddPost(storage.Post{Type: storage.TypePost, Status: "publish", Content: `<a href="http://old.example/a">a</a>`})
	att := mem.AddPost(storage.Post{
		Type: storage.TypeAttachment, Status: storage.StatusInherit,
		GUID: "http://old.example/wp-content/uploads/a.png",
	})
	mem.AddOption(OptionSiteURL, "http://old.example/", true)
	mem.AddOption("home", "http://old.example", true)
	return mem, post, att
}

func newTestService(store storage.Store, rec relocate.Recorder) RelocateService {
	return NewRelocateService(config.NewConfig(), store, rec, relocate.Hooks{}, zap.NewNop().Sugar())
}

func TestRelocateServ_Prepare(t *testing.T) {
	mem, _, _ := newTestStore()
	s := newTestService(mem, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     RelocateRequest
		wantOld string
		wantNew string
		wantErr error
	}{
		{
			name:    "Old URL from siteurl",
			req:     RelocateRequest{NewURL: " https://new.example/ "},
			wantOld: "http://old.example",
			wantNew: "https://new.example",
		},
		{
			name:    "Explicit old URL",
			req:     RelocateRequest{OldURL: "http://other.example//", NewURL: "https://new.example"},
			wantOld: "http://other.example",
			wantNew: "https://new.example",
		},
		{
			name:    "Missing new URL",
			req:     RelocateRequest{NewURL: "  /"},
			wantErr: ErrMissingNewURL,
		},
		{
			name:    "Bad old URL",
			req:     RelocateRequest{OldURL: "http://old.example/?p=1", NewURL: "https://new.example"},
			wantErr: ErrInvalidOldSiteURL,
		},
		{
			name:    "Bad new URL",
			req:     RelocateRequest{NewURL: "ftp://new.example"},
			wantErr: ErrInvalidNewSiteURL,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Prepare(ctx, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOld, got.OldURL)
			assert.Equal(t, tt.wantNew, got.NewURL)
		})
	}
}

func TestRelocateServ_CurrentSiteURL(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing option", func(t *testing.T) {
		s := newTestService(storage.NewStorageMemory(false), nil)
		got, err := s.CurrentSiteURL(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Store error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStore(ctrl)
		store.EXPECT().GetOption(gomock.Any(), OptionSiteURL).Return("", errors.New("connection reset"))

		_, err := newTestService(store, nil).CurrentSiteURL(ctx)
		assert.ErrorContains(t, err, "connection reset")
	})
}

func TestRelocateServ_Relocate(t *testing.T) {
	ctx := context.Background()

	t.Run("Everything", func(t *testing.T) {
		mem, post, att := newTestStore()
		report, err := newTestService(mem, nil).Relocate(ctx, RelocateRequest{
			NewURL: "https://new.example", Options: true, Attachments: true, Content: true,
		})
		require.NoError(t, err)

		assert.Equal(t, "http://old.example", report.OldURL)
		assert.Equal(t, 2, report.OptionsProcessed)
		assert.Equal(t, 1, report.AttachmentsProcessed)
		assert.Equal(t, 1, report.PostsProcessed)
		assert.Empty(t, report.Failures)
		assert.Equal(t, "https://new.example/wp-login.php", report.LoginURL())

		p, _ := mem.Post(post)
		assert.Equal(t, `<a href="https://new.example/a">a</a>`, p.Content)
		a, _ := mem.Post(att)
		assert.Equal(t, "https://new.example/wp-content/uploads/a.png", a.GUID)
		v, _ := mem.GetOption(ctx, OptionSiteURL)
		assert.Equal(t, "https://new.example/", v)
	})

	t.Run("Content only", func(t *testing.T) {
		mem, _, att := newTestStore()
		report, err := newTestService(mem, nil).Relocate(ctx, RelocateRequest{
			NewURL: "https://new.example", Content: true,
		})
		require.NoError(t, err)
		assert.Zero(t, report.OptionsProcessed)
		assert.Zero(t, report.AttachmentsProcessed)
		assert.Equal(t, 1, report.PostsProcessed)

		a, _ := mem.Post(att)
		assert.Equal(t, "http://old.example/wp-content/uploads/a.png", a.GUID)
	})

	t.Run("Dry run", func(t *testing.T) {
		mem, post, _ := newTestStore()
		ctrl := gomock.NewController(t)
		rec := mocks.NewMockRecorder(ctrl)
		rec.EXPECT().Record(gomock.Any()).DoAndReturn(func(e models.JournalEntry) error {
			assert.True(t, e.DryRun)
			return nil
		}).AnyTimes()

		report, err := newTestService(mem, rec).Relocate(ctx, RelocateRequest{
			NewURL: "https://new.example", Options: true, Content: true, DryRun: true,
		})
		require.NoError(t, err)
		assert.True(t, report.DryRun)
		assert.Equal(t, 1, report.PostsProcessed)

		p, _ := mem.Post(post)
		assert.Contains(t, p.Content, "http://old.example/a")
		v, _ := mem.GetOption(ctx, "home")
		assert.Equal(t, "http://old.example", v)
	})

	t.Run("Invalid request", func(t *testing.T) {
		mem, _, _ := newTestStore()
		_, err := newTestService(mem, nil).Relocate(ctx, RelocateRequest{NewURL: "new.example"})
		assert.ErrorIs(t, err, ErrInvalidNewSiteURL)
	})

	t.Run("Failures reported", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStore(ctrl)
		store.EXPECT().QueryPosts(gomock.Any(), gomock.Any()).Return([]storage.Post{
			{ID: 9, Type: storage.TypePost, Content: "http://old.example"},
			{ID: 3, Type: storage.TypePost, Content: "http://old.example"},
		}, nil)
		store.EXPECT().UpdatePost(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("disk full")).Times(2)

		report, err := newTestService(store, nil).Relocate(ctx, RelocateRequest{
			OldURL: "http://old.example", NewURL: "https://new.example", Content: true, PostIDs: []int64{3, 9},
		})
		require.NoError(t, err)
		require.Len(t, report.Failures, 2)
		assert.Equal(t, Failure{Kind: models.KindPost, Key: "3", Error: "disk full"}, report.Failures[0])
		assert.Equal(t, "9", report.Failures[1].Key)
	})
}

func TestRelocateServ_Ping(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Ping(gomock.Any()).Return(nil)

	assert.NoError(t, newTestService(store, nil).Ping(context.Background()))
}
