package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/tool-portal/internal/model"
	"github.com/ashwinyue/tool-portal/internal/repository"
	"github.com/ashwinyue/tool-portal/internal/testutil"
)

// failingStore 模拟存储故障
type failingStore struct {
	repository.ToolStore
	err error
}

func (f *failingStore) ListAll(ctx context.Context) ([]*model.Tool, error) {
	return nil, f.err
}

func (f *failingStore) Exists(ctx context.Context) (bool, error) {
	return false, f.err
}

func (f *failingStore) Transaction(ctx context.Context, fn func(tx repository.ToolStore) error) error {
	return fn(f)
}

func slugs(tools []*model.Tool) []string {
	out := make([]string, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.Slug)
	}
	return out
}

func TestSeed_EmptyDatabase(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	svc := NewService(repository.NewToolRepository(db.DB), nil)

	result, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, result.Seeded)
	assert.Equal(t, len(DefaultTools()), result.Inserted)

	tools, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, slugs(DefaultTools()), slugs(tools))
	for _, tool := range tools {
		assert.NotZero(t, tool.ID)
		assert.NotEmpty(t, tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.NotEmpty(t, tool.TargetPath)
	}
}

func TestSeed_IdempotentAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	url := testutil.MemoryDatabaseURL(t)

	first := testutil.OpenTestDB(t, url)
	_, err := NewService(repository.NewToolRepository(first.DB), nil).Seed(ctx)
	require.NoError(t, err)

	// 同一个库重新建立连接池，相当于进程重启
	second := testutil.OpenTestDB(t, url)
	svc := NewService(repository.NewToolRepository(second.DB), nil)
	result, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, result.Seeded)
	assert.Zero(t, result.Inserted)

	tools, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, slugs(DefaultTools()), slugs(tools))
}

func TestSeed_SkipsPopulatedDatabase(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := repository.NewToolRepository(db.DB)
	require.NoError(t, repo.Create(ctx, testutil.SampleTool("internal-wiki")))

	svc := NewService(repo, nil)
	result, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, result.Seeded)

	tools, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"internal-wiki"}, slugs(tools))
}

func TestSeed_StorageError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(&failingStore{err: boom}, nil)

	result, err := svc.Seed(context.Background())
	require.ErrorIs(t, err, boom)
	assert.False(t, result.Seeded)
}

func TestList_StorageError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(&failingStore{err: boom}, nil)

	tools, err := svc.List(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Nil(t, tools)
}

func TestDefaultTools(t *testing.T) {
	defaults := DefaultTools()
	require.NotEmpty(t, defaults)

	seen := make(map[string]bool)
	for _, tool := range defaults {
		assert.Zero(t, tool.ID, "default tools get their id from storage")
		assert.False(t, seen[tool.Slug], "duplicate default slug %q", tool.Slug)
		seen[tool.Slug] = true
	}

	// 每次返回新实例，避免写库时回填 ID 污染默认值
	defaults[0].Name = "changed"
	assert.NotEqual(t, "changed", DefaultTools()[0].Name)
}
