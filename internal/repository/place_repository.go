// This file defines the Place model and repository. A place is a venue in
// the public directory; it carries free-text columns whose newlines are
// stored as a line-break marker, a phone number normalized to exactly ten
// digits or NULL, and a many-to-many tag association through the
// place_tags junction table. Replacing a place's tag set is always a full
// delete-and-reinsert, never an incremental diff.
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

// Place represents a row in the `places` table plus its aggregated tag
// values. Phone is nil when no valid ten-digit number is stored. Specials
// and Notes hold the encoded (marker) form; edit views decode them.
type Place struct {
	ID         uint64    // places.id
	Name       string    // places.name (required)
	Address    string    // places.address
	Phone      *string   // places.phone (ten digits or NULL)
	URL        string    // places.url
	Specials   string    // places.specials (line breaks encoded)
	Categories string    // places.categories
	Notes      string    // places.notes (line breaks encoded)
	Tags       []string  // ordered tag values from place_tags
	CreatedAt  time.Time // places.created_at
	UpdatedAt  time.Time // places.updated_at
}

// PlaceInput is the full field set accepted on create.
type PlaceInput struct {
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Phone      string   `json:"phone"`
	URL        string   `json:"url"`
	Specials   string   `json:"specials"`
	Categories string   `json:"categories"`
	Notes      string   `json:"notes"`
	Tags       []string `json:"tags"`
}

// PlacePatch carries the optional fields of a partial update. Tags being
// present (even empty) replaces the whole association set; absent leaves
// it untouched.
type PlacePatch struct {
	Name       patch.String      `json:"name"`
	Address    patch.String      `json:"address"`
	Phone      patch.String      `json:"phone"`
	URL        patch.String      `json:"url"`
	Specials   patch.String      `json:"specials"`
	Categories patch.String      `json:"categories"`
	Notes      patch.String      `json:"notes"`
	Tags       patch.StringSlice `json:"tags"`
}

// ErrPlaceNotFound is returned when a place lookup or update misses.
var ErrPlaceNotFound = errors.New("place not found")

// PlaceRepo encapsulates all database access for places and their tag
// associations.
type PlaceRepo struct {
	db *sql.DB
}

// NewPlaceRepo constructs a PlaceRepo with the provided DB handle.
func NewPlaceRepo(db *sql.DB) *PlaceRepo {
	return &PlaceRepo{db: db}
}

// placeSelect aggregates each place's tag values in taxonomy order via
// GROUP_CONCAT so a single query returns the full record.
const placeSelect = `SELECT p.id, p.name, p.address, p.phone, p.url, p.specials, p.categories, p.notes,
       p.created_at, p.updated_at,
       COALESCE(GROUP_CONCAT(t.value ORDER BY t.sort_order, t.value SEPARATOR ','), '')
FROM places p
LEFT JOIN place_tags pt ON pt.place_id = p.id
LEFT JOIN tags t ON t.id = pt.tag_id`

func scanPlace(row interface{ Scan(...any) error }) (*Place, error) {
	var (
		p      Place
		joined string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Address, &p.Phone, &p.URL, &p.Specials, &p.Categories, &p.Notes,
		&p.CreatedAt, &p.UpdatedAt, &joined); err != nil {
		return nil, err
	}
	if joined != "" {
		p.Tags = strings.Split(joined, ",")
	} else {
		p.Tags = []string{}
	}
	return &p, nil
}

// List returns all places ordered by name, each with its aggregated tag
// values. A non-empty tagFilter restricts the result to places associated
// with that tag value.
func (r *PlaceRepo) List(ctx context.Context, tagFilter string) ([]*Place, error) {
	q := placeSelect
	var args []any
	if tagFilter != "" {
		q += ` WHERE p.id IN (SELECT pt2.place_id FROM place_tags pt2
		       JOIN tags t2 ON t2.id = pt2.tag_id WHERE t2.value = ?)`
		args = append(args, tagFilter)
	}
	q += " GROUP BY p.id ORDER BY p.name"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns a single place with its tags or ErrPlaceNotFound.
func (r *PlaceRepo) GetByID(ctx context.Context, id uint64) (*Place, error) {
	q := placeSelect + " WHERE p.id = ? GROUP BY p.id"
	p, err := scanPlace(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlaceNotFound
		}
		return nil, err
	}
	return p, nil
}

// Create inserts a place and replaces its tag associations within one
// transaction, then re-reads and returns the full record. Phone and
// line-break normalization are applied before the insert.
func (r *PlaceRepo) Create(ctx context.Context, in PlaceInput) (*Place, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
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
		`INSERT INTO places (name, address, phone, url, specials, categories, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, in.Address, utils.NormalizePhone(in.Phone), in.URL,
		utils.EncodeLineBreaks(in.Specials), in.Categories, utils.EncodeLineBreaks(in.Notes))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := r.replaceTags(ctx, tx, uint64(id), in.Tags); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return r.GetByID(ctx, uint64(id))
}

// Update applies only the supplied fields of p within one transaction.
// When at least one real field is present, the UPDATE runs and a zero-row
// result means not-found. Tag replacement happens whenever Tags is
// present, independent of other fields. An empty patch skips the UPDATE
// entirely and just returns the current record.
func (r *PlaceRepo) Update(ctx context.Context, id uint64, p PlacePatch) (*Place, error) {
	if p.Name.Present && strings.TrimSpace(deref(p.Name.Value)) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
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

	// Fixed field order keeps the generated statement deterministic.
	var (
		sets []string
		args []any
	)
	if p.Name.Present {
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(deref(p.Name.Value)))
	}
	if p.Address.Present {
		sets = append(sets, "address = ?")
		args = append(args, deref(p.Address.Value))
	}
	if p.Phone.Present {
		sets = append(sets, "phone = ?")
		args = append(args, utils.NormalizePhone(deref(p.Phone.Value)))
	}
	if p.URL.Present {
		sets = append(sets, "url = ?")
		args = append(args, deref(p.URL.Value))
	}
	if p.Specials.Present {
		sets = append(sets, "specials = ?")
		args = append(args, utils.EncodeLineBreaks(deref(p.Specials.Value)))
	}
	if p.Categories.Present {
		sets = append(sets, "categories = ?")
		args = append(args, deref(p.Categories.Value))
	}
	if p.Notes.Present {
		sets = append(sets, "notes = ?")
		args = append(args, utils.EncodeLineBreaks(deref(p.Notes.Value)))
	}

	if len(sets) > 0 {
		q := "UPDATE places SET " + strings.Join(sets, ", ") + ", updated_at = CURRENT_TIMESTAMP WHERE id = ?"
		args = append(args, id)
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrPlaceNotFound
		}
	}

	if p.Tags.Present {
		if err := r.replaceTags(ctx, tx, id, p.Tags.Value); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return r.GetByID(ctx, id)
}

// Delete removes the place row; junction rows cascade at the storage
// level. Returns whether a row was deleted.
func (r *PlaceRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM places WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// replaceTags swaps the place's full association set: delete everything,
// then insert one junction row per input value that matches an existing
// tag. Unknown values are silently skipped, matching the match-by-value
// contract of the bulk endpoints.
func (r *PlaceRepo) replaceTags(ctx context.Context, tx *sql.Tx, placeID uint64, tags []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM place_tags WHERE place_id = ?", placeID); err != nil {
		return err
	}
	if len(tags) == 0 {
		return nil
	}
	ph := make([]string, len(tags))
	args := make([]any, 0, len(tags)+1)
	args = append(args, placeID)
	for i, v := range tags {
		ph[i] = "?"
		args = append(args, v)
	}
	q := `INSERT INTO place_tags (place_id, tag_id)
	      SELECT ?, t.id FROM tags t WHERE t.value IN (` + strings.Join(ph, ", ") + `)`
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}
