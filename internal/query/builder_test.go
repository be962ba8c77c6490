package query

import (
	"bytes"
	"log"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"httpquery/internal/config"
	"httpquery/internal/convert"
	"httpquery/internal/metadata"
	"httpquery/internal/metadata/metadatatest"
	"httpquery/internal/predicate"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	b := New(convert.NewRegistry(), metadatatest.Catalog())
	require.NoError(t, b.AddIgnoredPatterns("fields", "page"))
	require.NoError(t, b.AddAlias(`.*\.?nothing`, "name"))
	require.NoError(t, b.AddAlias(`.*\.?author`, "artist"))
	require.NoError(t, b.AddAlias(`Cover:boap`, "album"))
	require.NoError(t, b.AddAlias(`Cover:gnarf`, "album.artist.name"))
	return b
}

func build(t *testing.T, b *Builder, root string, kv ...string) *predicate.List {
	t.Helper()
	require.Zero(t, len(kv)%2, "key/value pairs")
	params := make([]Param, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		params = append(params, Param{Key: kv[i], Values: []string{kv[i+1]}})
	}
	list, err := BuildQuery(b, root, params, predicate.NewList())
	require.NoError(t, err)
	return list
}

func utc(y int, m time.Month, d, h, min, s, ms int) time.Time {
	return time.Date(y, m, d, h, min, s, ms*int(time.Millisecond), time.UTC)
}

// requireRange asserts that exprs is exactly [field >= lower, field <= upper].
func requireRange(t *testing.T, exprs []predicate.Expr, field string, lower, upper time.Time) {
	t.Helper()
	require.Len(t, exprs, 2)
	assert.Equal(t, predicate.OpGe, exprs[0].Op)
	assert.Equal(t, field, exprs[0].Field)
	assert.True(t, lower.Equal(exprs[0].Value.(time.Time)), "lower: %v", exprs[0].Value)
	assert.Equal(t, predicate.OpLe, exprs[1].Op)
	assert.Equal(t, field, exprs[1].Field)
	assert.True(t, upper.Equal(exprs[1].Value.(time.Time)), "upper: %v", exprs[1].Value)
}

func TestBuild_ScenarioA_RelationCollection(t *testing.T) {
	list := build(t, newBuilder(t), "Artist",
		"albums.year__notin", "1999,2000",
		"albums.name__istartswith", "Des",
	)

	assert.Equal(t, []predicate.Expr{
		predicate.Not(predicate.In("albums.year", []any{1999, 2000})),
		predicate.Match(predicate.OpIStartsWith, "albums.name", "Des"),
	}, list.Exprs())
}

func TestBuild_ScenarioB_BetweenOnIdentifier(t *testing.T) {
	list := build(t, newBuilder(t), "Artist", "id__between", "1,2")

	assert.Equal(t, []predicate.Expr{predicate.Between("id", int64(1), int64(2))}, list.Exprs())
}

func TestBuild_ScenarioC_YearOnlyTimestamp(t *testing.T) {
	list := build(t, newBuilder(t), "Artist", "createdAt__eq", "1999")

	requireRange(t, list.Exprs(), "createdAt", utc(1999, 1, 1, 0, 0, 0, 0), utc(1999, 12, 31, 23, 59, 59, 999))
}

func TestBuild_ScenarioD_OrderByKeepsParameterOrder(t *testing.T) {
	list := build(t, newBuilder(t), "Cover",
		"album.year__orderby", "ASC",
		"album.artist.name__orderby", "ASC",
	)

	assert.Empty(t, list.Exprs())
	assert.Equal(t, "album.year ASC, album.artist.name ASC", list.OrderBy())
}

func TestBuild_OrderByRejectsOtherDirections(t *testing.T) {
	list := build(t, newBuilder(t), "Album",
		"name__orderby", "desc",
		"year__orderby", "sideways",
		"length__orderby", "",
	)

	assert.Equal(t, "name desc", list.OrderBy())
}

func TestBuild_NoOrderByLeavesClauseUnset(t *testing.T) {
	list := build(t, newBuilder(t), "Album", "name", "Visions")
	assert.Equal(t, "", list.OrderBy())
}

func TestBuild_UnresolvablePathProducesNothing(t *testing.T) {
	list := build(t, newBuilder(t), "Artist",
		"unknown__eq", "1",
		"unknown.name__like", "x",
		"Name", "case matters",
		"", "empty key",
	)

	assert.Equal(t, 0, list.Len())
}

func TestBuild_PathStopsAtFirstUnknownWord(t *testing.T) {
	list := build(t, newBuilder(t), "Album", "name.first__like", "Vis%")

	assert.Equal(t, []predicate.Expr{predicate.Match(predicate.OpLike, "name", "Vis%")}, list.Exprs())
}

func TestBuild_UnknownOperatorIsIgnored(t *testing.T) {
	list := build(t, newBuilder(t), "Album",
		"name__regex", ".*",
		"name__not__regex", ".*",
		"name__EQ", "upper-case operators are unknown",
	)

	assert.Equal(t, 0, list.Len())
}

func TestBuild_IgnoredKeys(t *testing.T) {
	list := build(t, newBuilder(t), "Album",
		"page", "2",
		"fields", "name",
		"name", "Visions",
	)

	assert.Equal(t, []predicate.Expr{predicate.Eq("name", "Visions")}, list.Exprs())
}

func TestBuild_IgnorePatternMatchesFullKeyWithOperator(t *testing.T) {
	b := newBuilder(t)
	require.NoError(t, b.AddIgnoredPatterns(`year__gt`))

	list := build(t, b, "Album", "year__gt", "1999", "year__lt", "2001")
	assert.Equal(t, []predicate.Expr{predicate.Lt("year", 2001)}, list.Exprs())
}

func TestBuild_DefaultOperatorIsEq(t *testing.T) {
	list := build(t, newBuilder(t), "Album", "available", "yes", "year", "1999")

	assert.Equal(t, []predicate.Expr{
		predicate.Eq("available", true),
		predicate.Eq("year", 1999),
	}, list.Exprs())
}

func TestBuild_EqOnRelationComparesByKey(t *testing.T) {
	list := build(t, newBuilder(t), "Album", "author__eq", "2")

	assert.Equal(t, []predicate.Expr{predicate.Eq("artist.id", int64(2))}, list.Exprs())
}

func TestBuild_NeWrapsEquality(t *testing.T) {
	list := build(t, newBuilder(t), "Album", "author__ne", "2")

	assert.Equal(t, []predicate.Expr{
		predicate.Not(predicate.Eq("artist.id", int64(2))),
	}, list.Exprs())
}

func TestBuild_NeOnTimestampNegatesRange(t *testing.T) {
	list := build(t, newBuilder(t), "Artist", "createdAt__ne", "1984-08-21T18:45:05")

	require.Len(t, list.Exprs(), 1)
	not := list.Exprs()[0]
	assert.Equal(t, predicate.OpNot, not.Op)
	requireRange(t, not.Children, "createdAt", utc(1984, 8, 21, 18, 45, 5, 0), utc(1984, 8, 21, 18, 45, 5, 999))
}

func TestBuild_NotMarker(t *testing.T) {
	list := build(t, newBuilder(t), "Album",
		"artist.name__not__ilike", "STRATovarius",
		"year__NOT__gt", "2000",
		"length__also__lt", "10",
	)

	assert.Equal(t, []predicate.Expr{
		predicate.Not(predicate.Match(predicate.OpILike, "artist.name", "STRATovarius")),
		predicate.Not(predicate.Gt("year", 2000)),
		predicate.Lt("length", 10),
	}, list.Exprs())
}

func TestBuild_NotEqOnTimestamp(t *testing.T) {
	list := build(t, newBuilder(t), "Artist", "createdAt__not__eq", "1984-08-21")

	require.Len(t, list.Exprs(), 1)
	requireRange(t, list.Exprs()[0].Children, "createdAt", utc(1984, 8, 21, 0, 0, 0, 0), utc(1984, 8, 21, 23, 59, 59, 999))
}

func TestBuild_EqDateOnlyOnTimestamp(t *testing.T) {
	list := build(t, newBuilder(t), "Artist", "createdAt", "1999-08-21")

	requireRange(t, list.Exprs(), "createdAt", utc(1999, 8, 21, 0, 0, 0, 0), utc(1999, 8, 21, 23, 59, 59, 999))
}

func TestBuild_EqPartialTimestampWidths(t *testing.T) {
	cases := []struct {
		raw          string
		lower, upper time.Time
	}{
		{"2000-02", utc(2000, 2, 1, 0, 0, 0, 0), utc(2000, 2, 29, 23, 59, 59, 999)},
		{"1999-08-21T18", utc(1999, 8, 21, 18, 0, 0, 0), utc(1999, 8, 21, 18, 59, 59, 999)},
		{"1999-08-21T18:45", utc(1999, 8, 21, 18, 45, 0, 0), utc(1999, 8, 21, 18, 45, 59, 999)},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			list := build(t, newBuilder(t), "Artist", "createdAt", tc.raw)
			requireRange(t, list.Exprs(), "createdAt", tc.lower, tc.upper)
		})
	}
}

func TestBuild_EqUnparseableTimestampIsNullEquality(t *testing.T) {
	list := build(t, newBuilder(t), "Artist", "createdAt__eq", "")

	assert.Equal(t, []predicate.Expr{predicate.Eq("createdAt", nil)}, list.Exprs())
}

func TestBuild_ComparisonOperators(t *testing.T) {
	list := build(t, newBuilder(t), "Album",
		"year__gt", "1999",
		"year__gte", "2000",
		"year__lt", "2002",
		"year__lte", "2001",
		"length__gt", "long",
	)

	assert.Equal(t, []predicate.Expr{
		predicate.Gt("year", 1999),
		predicate.Ge("year", 2000),
		predicate.Lt("year", 2002),
		predicate.Le("year", 2001),
		predicate.Gt("length", nil),
	}, list.Exprs())
}

func TestBuild_LteWidensPartialTimestamp(t *testing.T) {
	cases := map[string]time.Time{
		"1999":                utc(1999, 12, 31, 23, 59, 59, 999),
		"1999-02":             utc(1999, 2, 28, 23, 59, 59, 999),
		"1999-08-21":          utc(1999, 8, 21, 23, 59, 59, 999),
		"1999-08-21T18":       utc(1999, 8, 21, 18, 59, 59, 999),
		"1999-08-21T18:45":    utc(1999, 8, 21, 18, 45, 59, 999),
		"1999-08-21T18:45:05": utc(1999, 8, 21, 18, 45, 5, 999),
	}
	for raw, upper := range cases {
		list := build(t, newBuilder(t), "Artist", "createdAt__lte", raw)
		require.Len(t, list.Exprs(), 1, raw)
		e := list.Exprs()[0]
		assert.Equal(t, predicate.OpLe, e.Op)
		assert.True(t, upper.Equal(e.Value.(time.Time)), "%s: got %v", raw, e.Value)
	}
}

func TestBuild_GtOnTimestampIsPointValue(t *testing.T) {
	list := build(t, newBuilder(t), "Artist", "createdAt__gt", "1999")

	require.Len(t, list.Exprs(), 1)
	assert.True(t, utc(1999, 1, 1, 0, 0, 0, 0).Equal(list.Exprs()[0].Value.(time.Time)))
}

func TestBuild_DateFieldUsesTimestampRules(t *testing.T) {
	list := build(t, newBuilder(t), "Album", "releasedOn", "2001-06")

	requireRange(t, list.Exprs(), "releasedOn", utc(2001, 6, 1, 0, 0, 0, 0), utc(2001, 6, 30, 23, 59, 59, 999))
}

func TestBuild_StringMatchOperatorsUseRawValue(t *testing.T) {
	list := build(t, newBuilder(t), "Album",
		"name__like", "Vis%",
		"name__ilike", "vis%",
		"name__contains", "isio",
		"name__icontains", "ISIO",
		"name__startswith", "Vi",
		"name__endswith", "ns",
		"name__istartswith", "vI",
		"name__iendswith", "",
		"year__like", "19%",
	)

	assert.Equal(t, []predicate.Expr{
		predicate.Match(predicate.OpLike, "name", "Vis%"),
		predicate.Match(predicate.OpILike, "name", "vis%"),
		predicate.Match(predicate.OpContains, "name", "isio"),
		predicate.Match(predicate.OpIContains, "name", "ISIO"),
		predicate.Match(predicate.OpStartsWith, "name", "Vi"),
		predicate.Match(predicate.OpEndsWith, "name", "ns"),
		predicate.Match(predicate.OpIStartsWith, "name", "vI"),
		predicate.Match(predicate.OpIEndsWith, "name", ""),
		predicate.Match(predicate.OpLike, "year", "19%"),
	}, list.Exprs())
}

func TestBuild_InConvertsEveryElement(t *testing.T) {
	list := build(t, newBuilder(t), "Cover",
		"album.year__in", "1997,1998,x",
		"url__in", "a,b,",
	)

	assert.Equal(t, []predicate.Expr{
		predicate.In("album.year", []any{1997, 1998, nil}),
		predicate.In("url", []any{"a", "b"}),
	}, list.Exprs())
}

// An empty notin is deliberately not negated; both forms match nothing.
func TestBuild_EmptyInAndNotInMatchNothing(t *testing.T) {
	list := build(t, newBuilder(t), "Artist",
		"id__in", "",
		"id__notin", "",
		"id__not__notin", "",
	)

	empty := predicate.In("id", []any{})
	assert.Equal(t, []predicate.Expr{empty, empty, predicate.Not(empty)}, list.Exprs())
	for _, e := range list.Exprs()[:2] {
		assert.NotNil(t, e.Values)
	}
}

func TestBuild_BetweenBounds(t *testing.T) {
	list := build(t, newBuilder(t), "Artist",
		"id__between", "1",
		"id__between", "",
		"id__between", ",7",
		"id__between", "3,4,5",
	)

	assert.Equal(t, []predicate.Expr{
		predicate.Between("id", int64(1), nil),
		predicate.Between("id", nil, nil),
		predicate.Between("id", nil, int64(7)),
		predicate.Between("id", int64(3), int64(4)),
	}, list.Exprs())
}

func TestBuild_NullAndEmptyChecks(t *testing.T) {
	list := build(t, newBuilder(t), "Artist",
		"createdAt__isnull", "ignored",
		"name__isnotnull", "",
		"albums__isempty", "",
		"albums__isnotempty", "",
		"name__isempty", "",
	)

	assert.Equal(t, []predicate.Expr{
		predicate.Check(predicate.OpIsNull, "createdAt"),
		predicate.Check(predicate.OpIsNotNull, "name"),
		predicate.Check(predicate.OpIsEmpty, "albums"),
		predicate.Check(predicate.OpIsNotEmpty, "albums"),
		predicate.Check(predicate.OpIsEmpty, "name"),
	}, list.Exprs())
}

func TestBuild_Aliases(t *testing.T) {
	b := newBuilder(t)

	list := build(t, b, "Cover",
		"boap.author.nothing__like", "Stratovarius",
		"gnarf", "Sonata Arctica",
	)
	assert.Equal(t, []predicate.Expr{
		predicate.Match(predicate.OpLike, "album.artist.name", "Stratovarius"),
		predicate.Eq("album.artist.name", "Sonata Arctica"),
	}, list.Exprs())

	list = build(t, b, "Album", "author__eq", "2")
	assert.Equal(t, []predicate.Expr{predicate.Eq("artist.id", int64(2))}, list.Exprs())
}

func TestBuild_AliasReplacementIsNotResolvedAgain(t *testing.T) {
	b := New(convert.NewRegistry(), metadatatest.Catalog())
	require.NoError(t, b.AddAlias(`Album:band`, "performer"))
	require.NoError(t, b.AddAlias(`Album:performer`, "artist"))

	list := build(t, b, "Album", "band.name", "x", "performer.name", "y")
	assert.Equal(t, []predicate.Expr{predicate.Eq("artist.name", "y")}, list.Exprs())
}

func TestBuild_CloneIsIndependent(t *testing.T) {
	b := newBuilder(t)
	c := b.Clone()
	require.NoError(t, c.AddAlias(`Album:band`, "artist"))
	require.NoError(t, c.AddIgnoredPatterns("year"))

	params := []string{"band.name", "Dreamtale", "year", "2001"}

	orig := build(t, b, "Album", params...)
	assert.Equal(t, []predicate.Expr{predicate.Eq("year", 2001)}, orig.Exprs())

	cloned := build(t, c, "Album", params...)
	assert.Equal(t, []predicate.Expr{predicate.Eq("artist.name", "Dreamtale")}, cloned.Exprs())

	ignored, aliases := b.Rules()
	assert.Equal(t, []string{"fields", "page"}, ignored)
	assert.Len(t, aliases, 4)
}

func TestBuild_Idempotent(t *testing.T) {
	b := newBuilder(t)
	kv := []string{
		"albums.year__notin", "1999,2000",
		"createdAt", "1999",
		"name__orderby", "asc",
		"albums__isnotempty", "",
	}

	first := build(t, b, "Artist", kv...)
	second := build(t, b, "Artist", kv...)
	assert.Equal(t, first.Exprs(), second.Exprs())
	assert.Equal(t, first.OrderBy(), second.OrderBy())
	assert.Equal(t, first.String(), second.String())
}

func TestBuild_FirstValueIsUsed(t *testing.T) {
	list, err := BuildQuery(newBuilder(t), "Album", []Param{
		{Key: "year", Values: []string{"1999", "2000"}},
		{Key: "name"},
	}, predicate.NewList())
	require.NoError(t, err)

	assert.Equal(t, []predicate.Expr{
		predicate.Eq("year", 1999),
		predicate.Eq("name", ""),
	}, list.Exprs())
}

func TestBuild_UnregisteredRelationTargetDropsInstruction(t *testing.T) {
	reg := metadata.NewRegistry()
	reg.Load([]*metadata.Entity{
		{Name: "Post", PrimaryKey: metadata.PrimaryKey{Field: "id", Type: metadata.TypeInt}},
	}, []*metadata.Relation{
		{Name: "author", Type: metadata.ManyToOne, Source: "Post", Target: "Ghost"},
	})
	b := New(convert.NewRegistry(), reg)

	list := build(t, b, "Post", "author.name", "x", "author", "1", "id", "3")
	assert.Equal(t, []predicate.Expr{predicate.Eq("id", 3)}, list.Exprs())
}

func TestBuildQuery_UnknownRootEntity(t *testing.T) {
	acc := predicate.NewList()
	got, err := BuildQuery(newBuilder(t), "Label", nil, acc)

	assert.ErrorIs(t, err, metadata.ErrUnknownEntity)
	assert.Same(t, acc, got)
}

func TestBuildFromValues(t *testing.T) {
	values := url.Values{
		"year__gte": {"2000"},
		"name":      {"Visions"},
		"page":      {"3"},
	}
	list, err := newBuilder(t).BuildFromValues("Album", values)
	require.NoError(t, err)

	assert.Equal(t, []predicate.Expr{
		predicate.Eq("name", "Visions"),
		predicate.Ge("year", 2000),
	}, list.Exprs())
}

func TestBuildFromValues_OrderByFollowsSortedKeys(t *testing.T) {
	values := url.Values{
		"year__orderby": {"desc"},
		"name__orderby": {"asc"},
	}
	list, err := newBuilder(t).BuildFromValues("Album", values)
	require.NoError(t, err)
	assert.Equal(t, "name asc, year desc", list.OrderBy())

	params, err := ParseRawQuery("year__orderby=desc&name__orderby=asc")
	require.NoError(t, err)
	ordered, err := BuildQuery(newBuilder(t), "Album", params, predicate.NewList())
	require.NoError(t, err)
	assert.Equal(t, "year desc, name asc", ordered.OrderBy())
}

func TestWithLogger_ReportsDroppedParameters(t *testing.T) {
	var buf bytes.Buffer
	b := New(convert.NewRegistry(), metadatatest.Catalog(), WithLogger(log.New(&buf, "", 0)))
	require.NoError(t, b.AddIgnoredPatterns("page"))

	build(t, b, "Album", "page", "1", "nope", "x", "name__fuzzy", "y", "name", "ok")

	out := buf.String()
	assert.Contains(t, out, `ignored parameter "page"`)
	assert.Contains(t, out, `no field "nope" on Album`)
	assert.Contains(t, out, `unknown operator "fuzzy"`)
	assert.NotContains(t, out, `"name"`)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.HTTPQueryConfig{
		IgnorePatterns: []string{"page", "[broken"},
		AliasRules: []config.AliasRule{
			{Pattern: `Cover:gnarf`, Replacement: "album.artist.name"},
			{Pattern: `(`, Replacement: "never"},
		},
	}
	b := NewFromConfig(cfg, convert.NewRegistry(), metadatatest.Catalog())

	ignored, aliases := b.Rules()
	assert.Equal(t, []string{"page"}, ignored)
	assert.Equal(t, [][2]string{{`Cover:gnarf`, "album.artist.name"}}, aliases)

	list := build(t, b, "Cover", "gnarf__icontains", "strato", "page", "1")
	assert.Equal(t, []predicate.Expr{
		predicate.Match(predicate.OpIContains, "album.artist.name", "strato"),
	}, list.Exprs())
}
