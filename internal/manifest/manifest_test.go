package manifest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"filegrip/internal/domain"
	"filegrip/internal/numrange"
	"filegrip/internal/selection"
)

type stubFetcher struct {
	records []domain.FileDetail
	err     error
}

func (f stubFetcher) FetchAll(ctx context.Context, sel selection.Selection) ([]domain.FileDetail, error) {
	return f.records, f.err
}

var records = []domain.FileDetail{
	{ID: "1", Name: "a.txt", Path: "/x/a.txt", Size: 12, Annotations: map[string]string{"ext": "txt", "top": "x"}},
	{ID: "2", Name: "b, c.md", Path: "/y/b, c.md", Size: 0, Annotations: map[string]string{"ext": "md"}},
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records, nil))

	want := "id,name,path,size,ext,top\n" +
		"1,a.txt,/x/a.txt,12,txt,x\n" +
		"2,\"b, c.md\",\"/y/b, c.md\",0,md,\n"
	require.Equal(t, want, buf.String())
}

func TestWriteCSVExplicitColumns(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records[:1], []string{"top"}))
	require.Equal(t, "id,name,path,size,top\n1,a.txt,/x/a.txt,12,x\n", buf.String())
}

func TestWriteCSVEmpty(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, nil))
	require.Equal(t, "id,name,path,size\n", buf.String())
}

func TestRequestJSON(t *testing.T) {
	t.Parallel()
	g := domain.Group{Key: "/docs", Name: "docs", Path: []string{"docs"}}
	sel := selection.New().Select(g, numrange.MustNew(0, 9), false).SelectIndex(g, 20, true)

	req := NewRequest("delete", sel)
	require.Equal(t, 11, req.Count)

	var buf bytes.Buffer
	require.NoError(t, WriteRequest(&buf, req))
	require.JSONEq(t, `{
		"operation": "delete",
		"count": 11,
		"selection": [{"group": {"key": "/docs", "name": "docs", "path": ["docs"]}, "ranges": [[0, 9], [20, 20]]}]
	}`, buf.String())
}

func TestExport(t *testing.T) {
	t.Parallel()
	sel := selection.New().SelectIndex(domain.Group{Key: "/"}, 0, false)

	var buf bytes.Buffer
	n, err := NewExporter(stubFetcher{records: records}).Export(context.Background(), sel, &buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Contains(t, buf.String(), "a.txt")
}

func TestExportWritesNothingOnFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	var buf bytes.Buffer
	n, err := NewExporter(stubFetcher{err: boom}).Export(context.Background(), selection.New(), &buf)
	require.ErrorIs(t, err, boom)
	require.Zero(t, n)
	require.Empty(t, buf.String())
}
