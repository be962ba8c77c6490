package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"httpquery/internal/config"
	"httpquery/internal/metadata"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, config.DatabaseConfig{Driver: "sqlite", Path: t.TempDir(), Name: "meta"})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Bootstrap(ctx))
	return s
}

func TestNew_SQLiteSingleWriterWAL(t *testing.T) {
	s := openSQLite(t)

	assert.Equal(t, "sqlite", s.Dialect.Name())
	assert.Equal(t, 1, s.DB.Stats().MaxOpenConnections)

	var mode string
	require.NoError(t, s.DB.QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestBootstrap_Idempotent(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Bootstrap(ctx))
	for _, table := range []string{"_entities", "_relations"} {
		ok, err := s.Dialect.TableExists(ctx, s.DB, table)
		require.NoError(t, err)
		assert.True(t, ok, table)
	}
}

func TestImport_UpsertsDefinitions(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	doc := &metadata.Document{
		Entities: []*metadata.Entity{
			{Name: "Artist", Table: "artist", PrimaryKey: metadata.PrimaryKey{Field: "id", Type: metadata.TypeBigInt}},
			{Name: "Album", PrimaryKey: metadata.PrimaryKey{Field: "id", Type: metadata.TypeBigInt}},
		},
		Relations: []*metadata.Relation{
			{Name: "artist", Type: metadata.ManyToOne, Source: "Album", Target: "Artist", Inverse: "albums"},
		},
	}
	require.NoError(t, s.Import(ctx, doc))

	doc.Entities[1].Fields = []metadata.Field{{Name: "year", Type: metadata.TypeInt}}
	require.NoError(t, s.Import(ctx, doc))

	names, err := EntityNames(ctx, s.DB)
	require.NoError(t, err)
	assert.Equal(t, []string{"Album", "Artist"}, names)

	tables, err := QueryStrings(ctx, s.DB, "SELECT table_name FROM _entities ORDER BY name")
	require.NoError(t, err)
	assert.Equal(t, []string{"Album", "artist"}, tables)

	reg := metadata.NewRegistry()
	require.NoError(t, metadata.LoadAll(ctx, s.DB, reg))
	f, ok := reg.ResolveField("Album", "year")
	require.True(t, ok)
	assert.Equal(t, metadata.TypeInt, f.Type)
	albums, ok := reg.ResolveField("Artist", "albums")
	require.True(t, ok)
	assert.True(t, albums.Collection)
}

func TestImport_RollsBackOnError(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	err := s.Import(ctx, &metadata.Document{
		Entities: []*metadata.Entity{{Name: "Album"}},
		Relations: []*metadata.Relation{
			{Name: "artist", Type: metadata.ManyToOne, Source: "Album", Target: "Artist"},
		},
	})
	require.Error(t, err)

	names, err := EntityNames(ctx, s.DB)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSaveEntity_DuplicateTable(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, SaveEntity(ctx, s.DB, s.Dialect, &metadata.Entity{Name: "Album", Table: "records"}))
	err := SaveEntity(ctx, s.DB, s.Dialect, &metadata.Entity{Name: "Single", Table: "records"})
	assert.True(t, errors.Is(err, ErrUniqueViolation), "got %v", err)
}

func TestDeleteEntity_CascadesRelations(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Import(ctx, &metadata.Document{
		Entities: []*metadata.Entity{{Name: "Artist"}, {Name: "Album"}},
		Relations: []*metadata.Relation{
			{Name: "artist", Type: metadata.ManyToOne, Source: "Album", Target: "Artist"},
		},
	}))

	require.NoError(t, DeleteEntity(ctx, s.DB, s.Dialect, "Artist"))
	assert.ErrorIs(t, DeleteEntity(ctx, s.DB, s.Dialect, "Artist"), ErrNotFound)

	rels, err := QueryStrings(ctx, s.DB, "SELECT name FROM _relations")
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestParamBuilder(t *testing.T) {
	pg := NewDialect("postgres").NewParamBuilder()
	assert.Equal(t, "$1", pg.Add("a"))
	assert.Equal(t, "$2", pg.Add(2))
	assert.Equal(t, []any{"a", 2}, pg.Params())

	lite := NewDialect("sqlite").NewParamBuilder()
	assert.Equal(t, "?1", lite.Add("a"))
}

func TestMapError(t *testing.T) {
	assert.NoError(t, MapError(&PostgresDialect{}, nil))

	err := MapError(&PostgresDialect{}, errors.New(`ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)`))
	assert.ErrorIs(t, err, ErrUniqueViolation)

	plain := errors.New("connection refused")
	assert.Equal(t, plain, MapError(&SQLiteDialect{}, plain))
}

func TestLoadMetadata(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", Path: dir, Name: "meta"},
		Metadata: config.MetadataConfig{Source: "database"},
	}

	s, err := New(ctx, cfg.Database)
	require.NoError(t, err)
	require.NoError(t, s.Bootstrap(ctx))
	require.NoError(t, SaveEntity(ctx, s.DB, s.Dialect, &metadata.Entity{
		Name: "Artist", PrimaryKey: metadata.PrimaryKey{Field: "id", Type: metadata.TypeBigInt},
	}))
	s.Close()

	reg := metadata.NewRegistry()
	require.NoError(t, LoadMetadata(ctx, cfg, reg))
	assert.NotNil(t, reg.GetEntity("Artist"))

	cfg.Metadata = config.MetadataConfig{Source: "file", File: dir + "/missing.yaml"}
	assert.Error(t, LoadMetadata(ctx, cfg, metadata.NewRegistry()))
}
