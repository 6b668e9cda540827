package entities

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/animelib/catalog/internal/core"
	"github.com/animelib/catalog/internal/database"
)

// Genre is a genre candidate.
type Genre struct {
	Name        *string `json:"name"`
	Description *string `json:"description,omitempty"`
}

func init() {
	core.Register(GenreKind.Definition())
}

var GenreKind = core.Kind[Genre]{
	Key:        "genre",
	Label:      "Genres",
	KeyFields:  []string{"name"},
	Fields:     []string{"name", "description"},
	Normalize:  func(g *Genre) { trimPtr(g.Name) },
	Validate:   validateGenre,
	NaturalKey: func(g *Genre) core.NaturalKey { return core.NaturalKey{deref(g.Name)} },
	Lookup:     lookupGenre,
	Insert: func(ctx context.Context, db core.DBTX, g *Genre) (int64, error) {
		return database.New(db).InsertGenre(ctx, database.InsertGenreParams{
			Name:        deref(g.Name),
			Description: core.ToPgText(g.Description),
		})
	},
	Merge: func(existing, candidate *Genre) *Genre {
		merged := *existing
		overwriteText(&merged.Description, candidate.Description)
		return &merged
	},
	Update: updateGenre,
}

func validateGenre(g *Genre) error {
	var c core.RecordChecker
	if c.Required("name", g.Name) {
		c.Length("name", g.Name, 1, 50)
	}
	return c.Err()
}

func lookupGenre(ctx context.Context, db core.DBTX, key core.NaturalKey) (*Genre, int64, error) {
	row, err := database.New(db).GetGenreByName(ctx, key[0])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return &Genre{
		Name:        core.Ptr(row.Name),
		Description: core.FromPgText(row.Description),
	}, row.ID, nil
}

func updateGenre(ctx context.Context, db core.DBTX, id int64, g *Genre) error {
	n, err := database.New(db).UpdateGenre(ctx, database.UpdateGenreParams{
		ID:          id,
		Description: core.ToPgText(g.Description),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Newf("genre %d no longer exists", id)
	}
	return nil
}
