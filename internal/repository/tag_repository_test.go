package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tagCols = []string{"id", "value", "display", "sort_order", "parent_tag_id", "has_children", "created_at", "updated_at"}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func tagRow(id uint64, value, display string, sortOrder int, parent any, hasChildren bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(tagCols).AddRow(id, value, display, sortOrder, parent, hasChildren, now, now)
}

func TestTagCreateWithParentRecomputesFlag(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepo(db)
	parent := uint64(5)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tags").
		WithArgs("pizza", "Pizza", 1, int64(5)).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(true))
	mock.ExpectExec("UPDATE tags SET has_children").
		WithArgs(true, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, value, display, sort_order, parent_tag_id, has_children, created_at, updated_at FROM tags WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(tagRow(42, "pizza", "Pizza", 1, int64(5), false))

	tag, err := repo.Create(context.Background(), "pizza", "Pizza", 1, &parent)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), tag.ID)
	require.NotNil(t, tag.ParentTagID)
	assert.Equal(t, uint64(5), *tag.ParentTagID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagCreateRejectsBadSlug(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewTagRepo(db)

	_, err := repo.Create(context.Background(), "Live Music!", "Live Music", 1, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTagCreateDuplicateValueConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tags").
		WithArgs("food", "Food", 1, nil).
		WillReturnError(errDuplicate)
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), "food", "Food", 1, nil)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// errDuplicate mimics the driver's duplicate-key error text (code 1062).
var errDuplicate = &mysqlLikeError{}

type mysqlLikeError struct{}

func (*mysqlLikeError) Error() string {
	return "Error 1062 (23000): Duplicate entry 'food' for key 'tags.uq_tags_value'"
}

func TestTagUpdateReparentRecomputesBothParents(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepo(db)
	newParent := uint64(7)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT parent_tag_id FROM tags WHERE id").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"parent_tag_id"}).AddRow(int64(5)))
	mock.ExpectExec("UPDATE tags SET parent_tag_id").
		WithArgs(int64(7), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Old parent loses the child, new parent gains one.
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(false))
	mock.ExpectExec("UPDATE tags SET has_children").
		WithArgs(false, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(true))
	mock.ExpectExec("UPDATE tags SET has_children").
		WithArgs(true, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, value, display, sort_order, parent_tag_id, has_children, created_at, updated_at FROM tags WHERE id").
		WithArgs(int64(2)).
		WillReturnRows(tagRow(2, "pizza", "Pizza", 1, int64(7), false))

	var p TagPatch
	p.ParentTagID.Present = true
	p.ParentTagID.Value = &newParent

	tag, err := repo.Update(context.Background(), 2, p)
	require.NoError(t, err)
	require.NotNil(t, tag.ParentTagID)
	assert.Equal(t, uint64(7), *tag.ParentTagID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagUpdateSameParentSkipsRecompute(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepo(db)
	same := uint64(5)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT parent_tag_id FROM tags WHERE id").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"parent_tag_id"}).AddRow(int64(5)))
	mock.ExpectExec("UPDATE tags SET display").
		WithArgs("Pizza & Pies", int64(5), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, value, display, sort_order, parent_tag_id, has_children, created_at, updated_at FROM tags WHERE id").
		WithArgs(int64(2)).
		WillReturnRows(tagRow(2, "pizza", "Pizza & Pies", 1, int64(5), false))

	display := "Pizza & Pies"
	var p TagPatch
	p.Display.Present = true
	p.Display.Value = &display
	p.ParentTagID.Present = true
	p.ParentTagID.Value = &same

	_, err := repo.Update(context.Background(), 2, p)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagUpdateEmptyPatchShortCircuits(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT parent_tag_id FROM tags WHERE id").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"parent_tag_id"}).AddRow(nil))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id, value, display, sort_order, parent_tag_id, has_children, created_at, updated_at FROM tags WHERE id").
		WithArgs(int64(2)).
		WillReturnRows(tagRow(2, "pizza", "Pizza", 1, nil, false))

	tag, err := repo.Update(context.Background(), 2, TagPatch{})
	require.NoError(t, err)
	assert.Equal(t, "Pizza", tag.Display)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagUpdateMissingTagNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT parent_tag_id FROM tags WHERE id").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"parent_tag_id"}))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), 99, TagPatch{})
	assert.ErrorIs(t, err, ErrTagNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagDeleteRecomputesFormerParent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT parent_tag_id FROM tags WHERE id").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"parent_tag_id"}).AddRow(int64(5)))
	mock.ExpectExec("DELETE pt FROM place_tags pt").
		WithArgs(int64(2), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM tags WHERE id").
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(false))
	mock.ExpectExec("UPDATE tags SET has_children").
		WithArgs(false, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.Delete(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagDeleteMissingReturnsFalse(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT parent_tag_id FROM tags WHERE id").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"parent_tag_id"}))
	mock.ExpectRollback()

	deleted, err := repo.Delete(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagBulkSaveReconcilesByValue(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, value, parent_tag_id FROM tags").
		WillReturnRows(sqlmock.NewRows([]string{"id", "value", "parent_tag_id"}).
			AddRow(int64(1), "food", nil).
			AddRow(int64(2), "stale", nil))
	// "stale" is absent from the input and gets deleted.
	mock.ExpectExec("DELETE FROM tags WHERE id").
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// "food" matches and is updated in place.
	mock.ExpectExec("UPDATE tags SET display").
		WithArgs("Food", 1, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// "pizza" is new and gets inserted as a top-level tag.
	mock.ExpectExec("INSERT INTO tags").
		WithArgs("pizza", "Pizza", 2).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	err := repo.BulkSave(context.Background(), []TagInput{
		{Value: "food", Display: "Food", SortOrder: 1},
		{Value: "pizza", Display: "Pizza", SortOrder: 2},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagBulkSaveReinsertsChildWhoseParentWasRemoved(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, value, parent_tag_id FROM tags").
		WillReturnRows(sqlmock.NewRows([]string{"id", "value", "parent_tag_id"}).
			AddRow(int64(1), "drinks", nil).
			AddRow(int64(2), "pizza", int64(1)))
	// "drinks" left the input; deleting it takes its child "pizza" with it
	// at the storage level. "pizza" is still wanted, so it must not be
	// updated under its stale id but re-inserted as a top-level tag.
	mock.ExpectExec("DELETE FROM tags WHERE id").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tags").
		WithArgs("pizza", "Pizza", 1).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	err := repo.BulkSave(context.Background(), []TagInput{
		{Value: "pizza", Display: "Pizza", SortOrder: 1},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagBulkSaveRejectsBadSlugBeforeWriting(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepo(db)

	err := repo.BulkSave(context.Background(), []TagInput{{Value: "Bad Slug"}})
	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTagPotentialParentsExcludesSelf(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTagRepo(db)
	exclude := uint64(3)

	mock.ExpectQuery("SELECT id, value, display, sort_order, parent_tag_id, has_children, created_at, updated_at FROM tags WHERE parent_tag_id IS NULL AND id").
		WithArgs(int64(3)).
		WillReturnRows(tagRow(1, "food", "Food", 1, nil, true))

	tags, err := repo.PotentialParents(context.Background(), &exclude)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "food", tags[0].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}
