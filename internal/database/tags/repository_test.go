package tags

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wkxuan/booknotes/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	dbPath := "./test_tags_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Book{}, &entities.BookInfo{})
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return NewRepository(db), db, cleanup
}

func createBookWithTags(t *testing.T, db *gorm.DB, userID uint, tags string) {
	t.Helper()
	book := &entities.Book{UserID: userID, Title: "t", Notes: "n"}
	require.NoError(t, db.Create(book).Error)
	require.NoError(t, db.Create(&entities.BookInfo{ID: book.ID, Tags: &tags}).Error)
}

func TestCountTags(t *testing.T) {
	cloud := CountTags([]string{"fiction # drama #fiction"})

	require.Len(t, cloud, 2)
	assert.Equal(t, TagCount{Tag: "fiction", Count: 2}, cloud[0])
	assert.Equal(t, TagCount{Tag: "drama", Count: 1}, cloud[1])
}

func TestCountTags_TiesKeepFirstSeenOrder(t *testing.T) {
	cloud := CountTags([]string{"bravo #alpha", "charlie #bravo"})

	require.Len(t, cloud, 3)
	assert.Equal(t, "bravo", cloud[0].Tag)
	assert.Equal(t, 2, cloud[0].Count)
	// alpha was seen before charlie; both count 1
	assert.Equal(t, "alpha", cloud[1].Tag)
	assert.Equal(t, "charlie", cloud[2].Tag)
}

func TestCountTags_CaseSensitive(t *testing.T) {
	cloud := CountTags([]string{"Fiction #fiction"})

	assert.Len(t, cloud, 2)
}

func TestCountTags_EmptyTokensDiscarded(t *testing.T) {
	cloud := CountTags([]string{"  # #fiction##  # "})

	require.Len(t, cloud, 1)
	assert.Equal(t, TagCount{Tag: "fiction", Count: 1}, cloud[0])
}

func TestCountTags_Empty(t *testing.T) {
	assert.Empty(t, CountTags(nil))
	assert.Empty(t, CountTags([]string{""}))
}

func TestRepository_TagCloud(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	createBookWithTags(t, db, 1, "fiction #drama")
	createBookWithTags(t, db, 1, "fiction")
	// Another user's tags stay out of the cloud
	createBookWithTags(t, db, 2, "thriller")

	cloud, err := repo.TagCloud(1)

	require.NoError(t, err)
	require.Len(t, cloud, 2)
	assert.Equal(t, TagCount{Tag: "fiction", Count: 2}, cloud[0])
	assert.Equal(t, TagCount{Tag: "drama", Count: 1}, cloud[1])
}

func TestRepository_TagCloud_NoBooks(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	cloud, err := repo.TagCloud(1)

	require.NoError(t, err)
	assert.Empty(t, cloud)
}
