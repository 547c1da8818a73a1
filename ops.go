package pointview

import (
	"context"

	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/highlight"
	"github.com/hupe1980/pointview/visibility"
)

// FilterOps edits field filters and reads the visibility they produce.
type FilterOps interface {
	SetCategoryVisible(src field.Source, fieldIdx, category int, visible bool) error
	SetAllCategoriesVisible(src field.Source, fieldIdx int, visible bool) error
	SetCategoryFilterEnabled(src field.Source, fieldIdx int, enabled bool) error
	SetContinuousFilter(src field.Source, fieldIdx int, lo, hi float64) error
	ResetContinuousFilter(src field.Source, fieldIdx int) error
	SetContinuousFilterEnabled(src field.Source, fieldIdx int, enabled bool) error
	SetOutlierFilter(src field.Source, fieldIdx int, enabled bool, threshold float64) error
	ClearFilters()
	RecomputeVisibility()
	Transparency() []float32
	FilteredCount() (shown, total int)
	FilterSummary() []visibility.FilterDescription
}

// FieldOps reads, loads, renames and deletes fields.
type FieldOps interface {
	Fields(src field.Source) field.FieldSet
	Field(src field.Source, fieldIdx int) (*field.Field, error)
	IndexByKey(src field.Source, originalKey string) (int, error)
	VisibleFields(src field.Source) []*field.Field
	DeletedFields(src field.Source) []*field.Field
	CategoricalFields(src field.Source) []*field.Field
	ContinuousFields(src field.Source) []*field.Field

	SetActiveField(src field.Source, fieldIdx int) error
	ActiveField() (*field.Field, bool)
	ClearActiveField()

	EnsureFieldLoaded(ctx context.Context, fieldIdx int) error
	EnsureVarFieldLoaded(ctx context.Context, fieldIdx int) error
	EnsureFieldsLoaded(ctx context.Context, src field.Source, indices []int) error

	RenameField(ctx context.Context, src field.Source, fieldIdx int, name string) error
	RevertFieldName(ctx context.Context, src field.Source, fieldIdx int) error
	DeleteField(ctx context.Context, src field.Source, fieldIdx int) error
	RestoreField(ctx context.Context, ref field.Ref) (int, error)
	PurgeField(ctx context.Context, ref field.Ref) error
	DuplicateField(ctx context.Context, src field.Source, fieldIdx int, name string) (int, error)
}

// ColorOps edits per-field color state.
type ColorOps interface {
	Colors() []uint8
	SetCategoryColor(src field.Source, fieldIdx, category int, c field.Color) error
	SetColormap(src field.Source, fieldIdx int, name string) error
	SetColorRange(src field.Source, fieldIdx int, r *field.Range) error
	SetLogScale(src field.Source, fieldIdx int, enabled bool) error
	ReapplyColors()
}

// CategoryOps rewrites the categories of categorical fields.
type CategoryOps interface {
	DeleteCategoryToUnassigned(ctx context.Context, src field.Source, fieldIdx, category int, alsoAbsorb ...int) (*CategoryEdit, error)
	MergeCategories(ctx context.Context, src field.Source, fieldIdx, from, to int) (*CategoryEdit, error)
	CategoryCounts(src field.Source, fieldIdx int) (total, visible []int, err error)
}

// HighlightOps manages highlight pages and the highlight buffer.
type HighlightOps interface {
	CreateHighlightPage(name string, color field.Color) string
	DeleteHighlightPage(pageID string) error
	SetActiveHighlightPage(pageID string) error
	HighlightPages() []*highlight.Page
	HighlightCategories(pageID, viewID string, src field.Source, fieldIdx int, categories []int) (string, error)
	HighlightRange(pageID, viewID string, src field.Source, fieldIdx int, r field.Range) (string, error)
	HighlightIndices(pageID, viewID, name string, indices []uint32) (string, error)
	SetHighlightGroupEnabled(pageID, groupID string, enabled bool) error
	RemoveHighlightGroup(pageID, groupID string) error
	CombineHighlightPages(a, b string, op highlight.Op) (string, error)
	PreviewHighlight(indices []uint32) []uint8
	ClearHighlightPreview()
	HighlightBuffer() []uint8
}

// ViewOps manages the live view and its snapshots.
type ViewOps interface {
	ActiveViewID() string
	Views() []string
	CreateView(id string) error
	SetActiveView(id string) error
	DeleteView(id string) error
	ViewTransparency(id string) ([]float32, error)
	SetViewCategoryVisible(id string, src field.Source, fieldIdx, category int, visible bool) error
	SetViewContinuousFilter(id string, src field.Source, fieldIdx int, lo, hi float64) error
	SetDimension(ctx context.Context, dim int) error
	Dimension() int
}
