package entities

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/animelib/catalog/internal/core"
	"github.com/animelib/catalog/internal/database"
)

// Title types and statuses accepted by the titles table.
var (
	TitleTypes    = []string{"anime", "manga"}
	TitleStatuses = []string{"announced", "ongoing", "released", "discontinued"}
)

// Title is a title candidate. Nil fields were absent from the submitted
// record.
type Title struct {
	CanonicalTitle *string    `json:"canonical_title"`
	RussianTitle   *string    `json:"russian_title,omitempty"`
	Type           *string    `json:"type"`
	Status         *string    `json:"status"`
	Synopsis       *string    `json:"synopsis,omitempty"`
	PosterURL      *string    `json:"poster_url,omitempty"`
	StartDate      *core.Date `json:"start_date,omitempty"`
	EndDate        *core.Date `json:"end_date,omitempty"`
	EpisodesCount  *int       `json:"episodes_count,omitempty"`
	VolumesCount   *int       `json:"volumes_count,omitempty"`
	ChaptersCount  *int       `json:"chapters_count,omitempty"`
}

func init() {
	core.Register(TitleKind.Definition())
}

// TitleKind identifies titles by canonical title and type. The titles table
// has no unique constraint on that pair, so duplicate detection is the only
// guard against double inserts.
var TitleKind = core.Kind[Title]{
	Key:       "title",
	Label:     "Titles",
	KeyFields: []string{"canonical_title", "type"},
	Fields: []string{
		"canonical_title", "russian_title", "type", "status", "synopsis", "poster_url",
		"start_date", "end_date", "episodes_count", "volumes_count", "chapters_count",
	},
	Normalize:  normalizeTitle,
	Validate:   validateTitle,
	NaturalKey: titleKey,
	Lookup:     lookupTitle,
	Insert:     insertTitle,
	Merge:      mergeTitle,
	Update:     updateTitle,
}

func normalizeTitle(t *Title) {
	trimPtr(t.CanonicalTitle)
	trimPtr(t.RussianTitle)
	trimPtr(t.PosterURL)
	lowerPtr(t.Type)
	lowerPtr(t.Status)
}

func validateTitle(t *Title) error {
	var c core.RecordChecker
	if c.Required("canonical_title", t.CanonicalTitle) {
		c.Length("canonical_title", t.CanonicalTitle, 1, 255)
	}
	c.Length("russian_title", t.RussianTitle, 0, 255)
	c.Length("poster_url", t.PosterURL, 0, 255)
	if c.Required("type", t.Type) {
		c.Enum("type", t.Type, TitleTypes...)
	}
	if c.Required("status", t.Status) {
		c.Enum("status", t.Status, TitleStatuses...)
	}
	c.NonNegative("episodes_count", t.EpisodesCount)
	c.NonNegative("volumes_count", t.VolumesCount)
	c.NonNegative("chapters_count", t.ChaptersCount)
	c.DateOrder("start_date", t.StartDate, "end_date", t.EndDate)
	return c.Err()
}

func titleKey(t *Title) core.NaturalKey {
	return core.NaturalKey{deref(t.CanonicalTitle), deref(t.Type)}
}

func lookupTitle(ctx context.Context, db core.DBTX, key core.NaturalKey) (*Title, int64, error) {
	row, err := database.New(db).GetTitleByNaturalKey(ctx, database.GetTitleByNaturalKeyParams{
		CanonicalTitle: key[0],
		Type:           key[1],
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return titleFromRow(row), row.ID, nil
}

func titleFromRow(row database.Title) *Title {
	return &Title{
		CanonicalTitle: core.Ptr(row.CanonicalTitle),
		RussianTitle:   core.FromPgText(row.RussianTitle),
		Type:           core.Ptr(row.Type),
		Status:         core.Ptr(row.Status),
		Synopsis:       core.FromPgText(row.Synopsis),
		PosterURL:      core.FromPgText(row.PosterUrl),
		StartDate:      core.FromPgDate(row.StartDate),
		EndDate:        core.FromPgDate(row.EndDate),
		EpisodesCount:  core.FromPgInt4(row.EpisodesCount),
		VolumesCount:   core.FromPgInt4(row.VolumesCount),
		ChaptersCount:  core.FromPgInt4(row.ChaptersCount),
	}
}

func insertTitle(ctx context.Context, db core.DBTX, t *Title) (int64, error) {
	return database.New(db).InsertTitle(ctx, database.InsertTitleParams{
		Type:           deref(t.Type),
		CanonicalTitle: deref(t.CanonicalTitle),
		RussianTitle:   core.ToPgText(t.RussianTitle),
		Synopsis:       core.ToPgText(t.Synopsis),
		PosterUrl:      core.ToPgText(t.PosterURL),
		Status:         deref(t.Status),
		StartDate:      core.ToPgDate(t.StartDate),
		EndDate:        core.ToPgDate(t.EndDate),
		EpisodesCount:  core.ToPgInt4(t.EpisodesCount),
		VolumesCount:   core.ToPgInt4(t.VolumesCount),
		ChaptersCount:  core.ToPgInt4(t.ChaptersCount),
	})
}

// mergeTitle applies the candidate's present fields to a copy of the stored
// title. The natural key fields are never rewritten.
func mergeTitle(existing, candidate *Title) *Title {
	merged := *existing
	overwriteText(&merged.RussianTitle, candidate.RussianTitle)
	overwriteText(&merged.Status, candidate.Status)
	overwriteText(&merged.Synopsis, candidate.Synopsis)
	overwriteText(&merged.PosterURL, candidate.PosterURL)
	overwrite(&merged.StartDate, candidate.StartDate)
	overwrite(&merged.EndDate, candidate.EndDate)
	overwrite(&merged.EpisodesCount, candidate.EpisodesCount)
	overwrite(&merged.VolumesCount, candidate.VolumesCount)
	overwrite(&merged.ChaptersCount, candidate.ChaptersCount)
	return &merged
}

func updateTitle(ctx context.Context, db core.DBTX, id int64, t *Title) error {
	n, err := database.New(db).UpdateTitle(ctx, database.UpdateTitleParams{
		ID:             id,
		CanonicalTitle: deref(t.CanonicalTitle),
		RussianTitle:   core.ToPgText(t.RussianTitle),
		Synopsis:       core.ToPgText(t.Synopsis),
		PosterUrl:      core.ToPgText(t.PosterURL),
		Status:         deref(t.Status),
		StartDate:      core.ToPgDate(t.StartDate),
		EndDate:        core.ToPgDate(t.EndDate),
		EpisodesCount:  core.ToPgInt4(t.EpisodesCount),
		VolumesCount:   core.ToPgInt4(t.VolumesCount),
		ChaptersCount:  core.ToPgInt4(t.ChaptersCount),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Newf("title %d no longer exists", id)
	}
	return nil
}
