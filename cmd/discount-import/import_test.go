package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/discount"
)

type fakeInserter struct {
	mu      sync.Mutex
	codes   map[string]discount.Discount
	batches int
}

func newFakeInserter() *fakeInserter {
	return &fakeInserter{codes: map[string]discount.Discount{}}
}

func (f *fakeInserter) InsertIgnore(_ context.Context, ds []discount.Discount) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches++
	var n int64
	for _, d := range ds {
		if _, ok := f.codes[d.Code]; ok {
			continue
		}
		f.codes[d.Code] = d
		n++
	}
	return n, nil
}

func (f *fakeInserter) sortedCodes() []string {
	out := make([]string, 0, len(f.codes))
	for c := range f.codes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func writeGz(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func TestParseRecord(t *testing.T) {
	for _, tt := range []struct {
		name    string
		record  []string
		want    discount.Discount
		wantErr bool
	}{
		{
			name:   "Percentage",
			record: []string{"SAVE10", "10", "PERCENTAGE"},
			want:   discount.Discount{Code: "SAVE10", ValueType: discount.ValueTypePercentage, Active: true},
		},
		{
			name:   "LowercaseTypeAndSpaces",
			record: []string{" FLAT5 ", " 5.50", "fixed "},
			want:   discount.Discount{Code: "FLAT5", ValueType: discount.ValueTypeFixed, Active: true},
		},
		{name: "TooFewFields", record: []string{"SAVE10", "10"}, wantErr: true},
		{name: "EmptyCode", record: []string{"", "10", "FIXED"}, wantErr: true},
		{name: "BadValue", record: []string{"X", "ten", "FIXED"}, wantErr: true},
		{name: "ZeroValue", record: []string{"X", "0", "FIXED"}, wantErr: true},
		{name: "UnknownType", record: []string{"X", "10", "BOGO"}, wantErr: true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRecord(tt.record)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Code, got.Code)
			assert.Equal(t, tt.want.ValueType, got.ValueType)
			assert.True(t, got.Active)
			assert.True(t, got.Value.IsPositive())
		})
	}
}

func TestImporter_ImportFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeGz(t, dir, "a.csv.gz", "code,value,type\nSAVE10,10,PERCENTAGE\nFLAT5,5,FIXED\nbroken row\n")
	second := writeGz(t, dir, "b.csv.gz", "SAVE10,10,PERCENTAGE\nSUMMER,20,percentage\n")

	repo := newFakeInserter()
	imp := newImporter(repo, 2, 100)
	require.NoError(t, imp.importFiles(context.Background(), []string{first, second}))

	assert.Equal(t, []string{"FLAT5", "SAVE10", "SUMMER"}, repo.sortedCodes())

	s := imp.stats()
	assert.EqualValues(t, 4, s.read)
	assert.EqualValues(t, 3, s.inserted)
	assert.EqualValues(t, 1, s.invalid)
	assert.GreaterOrEqual(t, s.repeated, int64(1))
}

func TestImporter_HeldBackCodesStillInserted(t *testing.T) {
	repo := newFakeInserter()
	imp := newImporter(repo, 10, 10)

	ctx := context.Background()
	d := discount.Discount{Code: "ONLY", ValueType: discount.ValueTypeFixed, Active: true}
	require.NoError(t, imp.add(ctx, d))
	// Simulate a bloom false positive for a new code.
	imp.held = append(imp.held, discount.Discount{Code: "FALSEPOS", ValueType: discount.ValueTypeFixed, Active: true})
	require.NoError(t, imp.finish(ctx))

	assert.Equal(t, []string{"FALSEPOS", "ONLY"}, repo.sortedCodes())
	assert.EqualValues(t, 2, imp.stats().inserted)
}

func TestImporter_MissingFile(t *testing.T) {
	imp := newImporter(newFakeInserter(), 10, 10)
	err := imp.importFiles(context.Background(), []string{filepath.Join(t.TempDir(), "missing.csv.gz")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open")
}
