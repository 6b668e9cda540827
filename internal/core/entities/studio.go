package entities

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/animelib/catalog/internal/core"
	"github.com/animelib/catalog/internal/database"
)

// StudioTypes lists the accepted studio types.
var StudioTypes = []string{"studio", "publisher"}

// Studio is a studio or publisher candidate.
type Studio struct {
	Name        *string    `json:"name"`
	Type        *string    `json:"type"`
	Country     *string    `json:"country,omitempty"`
	FoundedDate *core.Date `json:"founded_date,omitempty"`
}

func init() {
	core.Register(StudioKind.Definition())
}

// StudioKind identifies studios by name, which storage also keeps unique.
var StudioKind = core.Kind[Studio]{
	Key:        "studio",
	Label:      "Studios",
	KeyFields:  []string{"name"},
	Fields:     []string{"name", "type", "country", "founded_date"},
	Normalize:  normalizeStudio,
	Validate:   validateStudio,
	NaturalKey: func(s *Studio) core.NaturalKey { return core.NaturalKey{deref(s.Name)} },
	Lookup:     lookupStudio,
	Insert:     insertStudio,
	Merge:      mergeStudio,
	Update:     updateStudio,
}

func normalizeStudio(s *Studio) {
	trimPtr(s.Name)
	trimPtr(s.Country)
	lowerPtr(s.Type)
}

func validateStudio(s *Studio) error {
	var c core.RecordChecker
	if c.Required("name", s.Name) {
		c.Length("name", s.Name, 1, 100)
	}
	if c.Required("type", s.Type) {
		c.Enum("type", s.Type, StudioTypes...)
	}
	c.Length("country", s.Country, 0, 50)
	return c.Err()
}

func lookupStudio(ctx context.Context, db core.DBTX, key core.NaturalKey) (*Studio, int64, error) {
	row, err := database.New(db).GetStudioByName(ctx, key[0])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return &Studio{
		Name:        core.Ptr(row.Name),
		Type:        core.Ptr(row.Type),
		Country:     core.FromPgText(row.Country),
		FoundedDate: core.FromPgDate(row.FoundedDate),
	}, row.ID, nil
}

func insertStudio(ctx context.Context, db core.DBTX, s *Studio) (int64, error) {
	return database.New(db).InsertStudio(ctx, database.InsertStudioParams{
		Name:        deref(s.Name),
		Type:        deref(s.Type),
		Country:     core.ToPgText(s.Country),
		FoundedDate: core.ToPgDate(s.FoundedDate),
	})
}

func mergeStudio(existing, candidate *Studio) *Studio {
	merged := *existing
	overwriteText(&merged.Type, candidate.Type)
	overwriteText(&merged.Country, candidate.Country)
	overwrite(&merged.FoundedDate, candidate.FoundedDate)
	return &merged
}

func updateStudio(ctx context.Context, db core.DBTX, id int64, s *Studio) error {
	n, err := database.New(db).UpdateStudio(ctx, database.UpdateStudioParams{
		ID:          id,
		Type:        deref(s.Type),
		Country:     core.ToPgText(s.Country),
		FoundedDate: core.ToPgDate(s.FoundedDate),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Newf("studio %d no longer exists", id)
	}
	return nil
}
