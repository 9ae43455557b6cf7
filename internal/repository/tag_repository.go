// This file defines the Tag model and the repository maintaining the tag
// taxonomy. Tags form a one-level hierarchy: a tag may reference a parent
// tag, and every parent carries a denormalized has_children flag that is
// recomputed from current table state inside the same transaction as any
// mutation touching the parent/child relationship. The flag is never
// incremented or decremented, only derived, so concurrent admin edits
// cannot drift it.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ferrisk/place-directory/internal/patch"
	"github.com/ferrisk/place-directory/internal/utils"
)

// Tag represents a row in the `tags` table. Value is the unique slug used
// in URLs and place associations; Display is the human label shown in the
// UI. ParentTagID is nil for top-level tags. HasChildren is derived and
// must never be written directly by callers.
type Tag struct {
	ID          uint64    // tags.id
	Value       string    // tags.value (unique slug: lowercase/digits/hyphens)
	Display     string    // tags.display
	SortOrder   int       // tags.sort_order (UI ordering)
	ParentTagID *uint64   // tags.parent_tag_id (nullable self reference)
	HasChildren bool      // tags.has_children (derived)
	CreatedAt   time.Time // tags.created_at
	UpdatedAt   time.Time // tags.updated_at
}

// TagPatch carries the optional fields of a partial tag update. Only
// fields present in the request body are applied; see the patch package
// for the tri-state semantics.
type TagPatch struct {
	Value       patch.String `json:"value"`
	Display     patch.String `json:"display"`
	SortOrder   patch.Int    `json:"sort_order"`
	ParentTagID patch.Uint64 `json:"parent_tag_id"`
}

// TagInput is one entry of a bulk save: the full desired tag set keyed by
// value. Bulk saves deliberately do not carry parent_tag_id — the bulk
// editor manages flat attributes only, hierarchy is edited per tag.
type TagInput struct {
	Value     string `json:"value"`
	Display   string `json:"display"`
	SortOrder int    `json:"sort_order"`
}

// ErrTagNotFound is returned when a tag lookup or update misses.
var ErrTagNotFound = errors.New("tag not found")

const tagColumns = "id, value, display, sort_order, parent_tag_id, has_children, created_at, updated_at"

// TagRepo encapsulates all database access for the tag taxonomy.
type TagRepo struct {
	db *sql.DB
}

// NewTagRepo constructs a TagRepo with the provided DB handle.
func NewTagRepo(db *sql.DB) *TagRepo {
	return &TagRepo{db: db}
}

func scanTag(row interface{ Scan(...any) error }) (*Tag, error) {
	var t Tag
	if err := row.Scan(&t.ID, &t.Value, &t.Display, &t.SortOrder, &t.ParentTagID, &t.HasChildren, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns every tag ordered by sort_order, then value. This is the
// flat list the structured presenter and the public API consume.
func (r *TagRepo) List(ctx context.Context) ([]*Tag, error) {
	const q = "SELECT " + tagColumns + " FROM tags ORDER BY sort_order, value"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListStructured returns the flat tag list reshaped into the one-level
// parent/children tree used by the UI.
func (r *TagRepo) ListStructured(ctx context.Context) (*StructuredTags, error) {
	tags, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildStructuredTags(tags), nil
}

// GetByID fetches a single tag. Returns ErrTagNotFound when no row exists.
func (r *TagRepo) GetByID(ctx context.Context, id uint64) (*Tag, error) {
	const q = "SELECT " + tagColumns + " FROM tags WHERE id = ?"
	t, err := scanTag(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return t, nil
}

// Create inserts a new tag. The value must be a valid slug and globally
// unique; a duplicate maps to ErrConflict. When a parent is given, the
// parent's has_children flag is recomputed inside the same transaction.
func (r *TagRepo) Create(ctx context.Context, value, display string, sortOrder int, parentID *uint64) (*Tag, error) {
	value = strings.TrimSpace(value)
	if !utils.ValidTagValue(value) {
		return nil, fmt.Errorf("%w: tag value must contain only lowercase letters, digits and hyphens", ErrValidation)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO tags (value, display, sort_order, parent_tag_id) VALUES (?, ?, ?, ?)",
		value, display, sortOrder, parentID)
	if err != nil {
		if isDuplicateErr(err) {
			return nil, fmt.Errorf("tag value %q: %w", value, ErrConflict)
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		if err := r.refreshHasChildren(ctx, tx, *parentID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	// Re-read so the returned record reflects DB-side defaults
	// (timestamps, has_children).
	return r.GetByID(ctx, uint64(id))
}

// Update applies only the supplied fields of p to the tag. If the parent
// reference changes, has_children is recomputed for both the old and the
// new parent (skipped when they are equal). Returns the refreshed tag or
// ErrTagNotFound.
func (r *TagRepo) Update(ctx context.Context, id uint64, p TagPatch) (*Tag, error) {
	if p.Value.Present {
		v := strings.TrimSpace(deref(p.Value.Value))
		if !utils.ValidTagValue(v) {
			return nil, fmt.Errorf("%w: tag value must contain only lowercase letters, digits and hyphens", ErrValidation)
		}
		p.Value.Value = &v
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Load the current parent first; it decides which flags need a refresh
	// and doubles as the existence check.
	var oldParent *uint64
	if err := tx.QueryRowContext(ctx, "SELECT parent_tag_id FROM tags WHERE id = ?", id).Scan(&oldParent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}

	// Build the partial update in a fixed field order, appending a clause
	// only for fields the caller actually supplied.
	var (
		sets []string
		args []any
	)
	if p.Value.Present {
		sets = append(sets, "value = ?")
		args = append(args, *p.Value.Value)
	}
	if p.Display.Present {
		sets = append(sets, "display = ?")
		args = append(args, deref(p.Display.Value))
	}
	if p.SortOrder.Present {
		n := 0
		if p.SortOrder.Value != nil {
			n = *p.SortOrder.Value
		}
		sets = append(sets, "sort_order = ?")
		args = append(args, n)
	}
	if p.ParentTagID.Present {
		sets = append(sets, "parent_tag_id = ?")
		args = append(args, p.ParentTagID.Value)
	}

	if len(sets) > 0 {
		q := "UPDATE tags SET " + strings.Join(sets, ", ") + ", updated_at = CURRENT_TIMESTAMP WHERE id = ?"
		args = append(args, id)
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			if isDuplicateErr(err) {
				return nil, fmt.Errorf("tag value: %w", ErrConflict)
			}
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// The row existed a moment ago; treat a concurrent delete as
			// not-found rather than success.
			return nil, ErrTagNotFound
		}
	}

	if p.ParentTagID.Present && !sameParent(oldParent, p.ParentTagID.Value) {
		if oldParent != nil {
			if err := r.refreshHasChildren(ctx, tx, *oldParent); err != nil {
				return nil, err
			}
		}
		if p.ParentTagID.Value != nil {
			if err := r.refreshHasChildren(ctx, tx, *p.ParentTagID.Value); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return r.GetByID(ctx, id)
}

// Delete removes a tag, its child tags (storage-level cascade) and every
// place association of the tag and its children, then recomputes the
// former parent's has_children flag. Returns whether a row was deleted.
func (r *TagRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var parent *uint64
	if err := tx.QueryRowContext(ctx, "SELECT parent_tag_id FROM tags WHERE id = ?", id).Scan(&parent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	// Drop junction rows for the tag and its children explicitly. The FK
	// cascade would handle this too; doing it here keeps the association
	// cleanup visible in the same place as the tag delete.
	if _, err := tx.ExecContext(ctx,
		`DELETE pt FROM place_tags pt
		 JOIN tags t ON t.id = pt.tag_id
		 WHERE t.id = ? OR t.parent_tag_id = ?`, id, id); err != nil {
		return false, err
	}

	// Child tags cascade at the storage level (tags.parent_tag_id FK).
	if _, err := tx.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id); err != nil {
		return false, err
	}

	if parent != nil {
		if err := r.refreshHasChildren(ctx, tx, *parent); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

// PotentialParents returns the tags selectable as a parent in an edit
// form: top-level tags only, excluding the tag being edited. A tag's own
// children are already excluded because children are never top-level.
func (r *TagRepo) PotentialParents(ctx context.Context, excludeID *uint64) ([]*Tag, error) {
	q := "SELECT " + tagColumns + " FROM tags WHERE parent_tag_id IS NULL"
	var args []any
	if excludeID != nil {
		q += " AND id <> ?"
		args = append(args, *excludeID)
	}
	q += " ORDER BY sort_order, value"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// BulkSave reconciles the full tag set against the given list, matching
// by value: tags whose value is absent from the input are deleted, tags
// with a matching value get display and sort_order updated, and new
// values are inserted as top-level tags. The whole reconciliation runs in
// one transaction and is idempotent. parent_tag_id is intentionally never
// touched on update; the bulk editor manages flat attributes only.
func (r *TagRepo) BulkSave(ctx context.Context, inputs []TagInput) error {
	for _, in := range inputs {
		if !utils.ValidTagValue(strings.TrimSpace(in.Value)) {
			return fmt.Errorf("%w: tag value %q must contain only lowercase letters, digits and hyphens", ErrValidation, in.Value)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Snapshot the current set so deletes and updates can be decided by value.
	rows, err := tx.QueryContext(ctx, "SELECT id, value, parent_tag_id FROM tags")
	if err != nil {
		return err
	}
	type existing struct {
		id     uint64
		parent *uint64
	}
	current := make(map[string]existing)
	for rows.Next() {
		var e existing
		var value string
		if err := rows.Scan(&e.id, &value, &e.parent); err != nil {
			rows.Close()
			return err
		}
		current[value] = e
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	wanted := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		wanted[strings.TrimSpace(in.Value)] = true
	}

	// Deletes first: tags whose value disappeared from the input. Junction
	// rows and child tags cascade at the storage level. Former parents of
	// deleted children get their flag recomputed below.
	refresh := make(map[uint64]bool)
	dropped := make(map[uint64]bool)
	for value, e := range current {
		if wanted[value] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", e.id); err != nil {
			return err
		}
		dropped[e.id] = true
		if e.parent != nil {
			refresh[*e.parent] = true
		}
	}

	// Updates and inserts, in input order. A matched row is gone by now if
	// its parent was deleted above (children cascade with the parent); such
	// values fall through to the insert and come back as top-level tags.
	for _, in := range inputs {
		value := strings.TrimSpace(in.Value)
		if e, ok := current[value]; ok && !(e.parent != nil && dropped[*e.parent]) {
			if _, err := tx.ExecContext(ctx,
				"UPDATE tags SET display = ?, sort_order = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
				in.Display, in.SortOrder, e.id); err != nil {
				return err
			}
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tags (value, display, sort_order) VALUES (?, ?, ?)",
			value, in.Display, in.SortOrder); err != nil {
			return err
		}
	}

	for parentID := range refresh {
		// The parent itself may have been deleted in this pass; the
		// refresh then updates zero rows, which is fine.
		if err := r.refreshHasChildren(ctx, tx, parentID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// refreshHasChildren recomputes the derived flag for one tag from current
// table state: true iff at least one row references it as parent. Always
// called inside the transaction of the mutation that triggered it.
func (r *TagRepo) refreshHasChildren(ctx context.Context, tx *sql.Tx, id uint64) error {
	var has bool
	if err := tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM tags WHERE parent_tag_id = ?)", id).Scan(&has); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, "UPDATE tags SET has_children = ? WHERE id = ?", has, id)
	return err
}

// sameParent compares two nullable parent references.
func sameParent(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// isDuplicateErr reports whether err is a MySQL duplicate-key violation
// (error 1062). Matching on the code string mirrors how the driver
// surfaces it without importing driver-specific error types.
func isDuplicateErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
