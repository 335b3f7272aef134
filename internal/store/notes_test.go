package store

import (
	"context"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/starford/notekeeper/internal/models"
)

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	sess := testSession(t, testDB(t))

	created, err := sess.Create(ctx, "Groceries", "milk, eggs")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.Equal(t, "Groceries", created.Title)
	assert.Equal(t, "milk, eggs", created.Content)

	got, err := sess.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *created, *got)
}

func TestCreate_EmptyStrings(t *testing.T) {
	ctx := context.Background()
	sess := testSession(t, testDB(t))

	created, err := sess.Create(ctx, "", "")
	require.NoError(t, err)
	got, err := sess.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Title)
	assert.Empty(t, got.Content)
}

func TestCreate_AssignsDistinctIDs(t *testing.T) {
	ctx := context.Background()
	sess := testSession(t, testDB(t))

	a, err := sess.Create(ctx, "a", "1")
	require.NoError(t, err)
	b, err := sess.Create(ctx, "b", "2")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestGetByID_Absent(t *testing.T) {
	sess := testSession(t, testDB(t))
	got, err := sess.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteByID_ReportsOnce(t *testing.T) {
	ctx := context.Background()
	sess := testSession(t, testDB(t))

	n, err := sess.Create(ctx, "bye", "gone")
	require.NoError(t, err)

	ok, err := sess.DeleteByID(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = sess.DeleteByID(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := sess.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteByID_Absent(t *testing.T) {
	sess := testSession(t, testDB(t))
	ok, err := sess.DeleteByID(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete_VisibleToOtherSessions(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	first := testSession(t, db)
	second := testSession(t, db)

	n, err := first.Create(ctx, "shared", "row")
	require.NoError(t, err)

	ok, err := second.DeleteByID(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = first.DeleteByID(ctx, n.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestList_EmptyStore(t *testing.T) {
	sess := testSession(t, testDB(t))
	notes, err := sess.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.NotNil(t, notes)
	assert.Empty(t, notes)
}

func TestList_SkipAndLimit(t *testing.T) {
	ctx := context.Background()
	sess := testSession(t, testDB(t))
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		_, err := sess.Create(ctx, title, "body")
		require.NoError(t, err)
	}

	notes, err := sess.List(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "b", notes[0].Title)
	assert.Equal(t, "c", notes[1].Title)

	notes, err = sess.List(ctx, 4, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	notes, err = sess.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, notes)

	notes, err = sess.List(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestSearch_TitleOrContent(t *testing.T) {
	ctx := context.Background()
	sess := testSession(t, testDB(t))
	inTitle, err := sess.Create(ctx, "milk run", "errands")
	require.NoError(t, err)
	inContent, err := sess.Create(ctx, "Groceries", "milk, eggs")
	require.NoError(t, err)
	_, err = sess.Create(ctx, "Work", "standup at ten")
	require.NoError(t, err)

	notes, err := sess.Search(ctx, "milk")
	require.NoError(t, err)
	assert.Equal(t, []models.Note{*inTitle, *inContent}, notes)
}

func TestSearch_CaseSensitive(t *testing.T) {
	ctx := context.Background()
	sess := testSession(t, testDB(t))
	_, err := sess.Create(ctx, "Milk", "Eggs")
	require.NoError(t, err)

	notes, err := sess.Search(ctx, "milk")
	require.NoError(t, err)
	assert.Empty(t, notes)

	notes, err = sess.Search(ctx, "Milk")
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestSearch_WildcardCharactersAreLiteral(t *testing.T) {
	ctx := context.Background()
	sess := testSession(t, testDB(t))
	_, err := sess.Create(ctx, "plain", "nothing special")
	require.NoError(t, err)
	pct, err := sess.Create(ctx, "discount", "50% off")
	require.NoError(t, err)

	notes, err := sess.Search(ctx, "%")
	require.NoError(t, err)
	assert.Equal(t, []models.Note{*pct}, notes)

	notes, err = sess.Search(ctx, "_")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestSearch_EmptyStore(t *testing.T) {
	sess := testSession(t, testDB(t))
	notes, err := sess.Search(context.Background(), "anything")
	require.NoError(t, err)
	require.NotNil(t, notes)
	assert.Empty(t, notes)
}

// =============================================================================
// Properties
// =============================================================================

func resetNotes(t *rapid.T, db *DB) {
	if _, err := db.conn.Exec(`DELETE FROM notes`); err != nil {
		t.Fatalf("reset notes: %v", err)
	}
}

func textGen() *rapid.Generator[string] {
	return rapid.StringMatching(`[abAB %_\-]{0,12}`)
}

func anyText() *rapid.Generator[string] {
	return rapid.StringOf(rapid.RuneFrom(nil, unicode.Letter, unicode.Digit, unicode.Space, unicode.Punct))
}

func TestProperty_CreateThenGet(t *testing.T) {
	db := testDB(t)
	sess := testSession(t, db)
	ctx := context.Background()

	rapid.Check(t, func(t *rapid.T) {
		title := anyText().Draw(t, "title")
		content := anyText().Draw(t, "content")

		created, err := sess.Create(ctx, title, content)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		got, err := sess.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got == nil {
			t.Fatalf("note %d not found after create", created.ID)
		}
		if got.Title != title || got.Content != content {
			t.Fatalf("round trip mismatch: got (%q, %q) want (%q, %q)", got.Title, got.Content, title, content)
		}
	})
}

func TestProperty_ListPartitions(t *testing.T) {
	db := testDB(t)
	sess := testSession(t, db)
	ctx := context.Background()

	rapid.Check(t, func(t *rapid.T) {
		resetNotes(t, db)
		total := rapid.IntRange(0, 20).Draw(t, "total")
		for i := range total {
			if _, err := sess.Create(ctx, "n", strings.Repeat("x", i)); err != nil {
				t.Fatalf("Create: %v", err)
			}
		}
		n := rapid.IntRange(0, 25).Draw(t, "n")
		m := rapid.IntRange(0, 25).Draw(t, "m")

		first, err := sess.List(ctx, 0, n)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		second, err := sess.List(ctx, n, m)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		both, err := sess.List(ctx, 0, n+m)
		if err != nil {
			t.Fatalf("List: %v", err)
		}

		if len(first) > n || len(second) > m {
			t.Fatalf("limit exceeded: len(first)=%d n=%d len(second)=%d m=%d", len(first), n, len(second), m)
		}
		joined := append(append([]models.Note{}, first...), second...)
		if len(joined) != len(both) {
			t.Fatalf("partition size %d, want %d", len(joined), len(both))
		}
		for i := range both {
			if joined[i] != both[i] {
				t.Fatalf("partition mismatch at %d: %+v vs %+v", i, joined[i], both[i])
			}
		}
	})
}

func TestProperty_SearchMatchesSubstring(t *testing.T) {
	db := testDB(t)
	sess := testSession(t, db)
	ctx := context.Background()

	rapid.Check(t, func(t *rapid.T) {
		resetNotes(t, db)
		var all []models.Note
		for i, count := 0, rapid.IntRange(0, 8).Draw(t, "count"); i < count; i++ {
			n, err := sess.Create(ctx, textGen().Draw(t, "title"), textGen().Draw(t, "content"))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			all = append(all, *n)
		}
		keyword := rapid.StringMatching(`[abAB %_\-]{1,3}`).Draw(t, "keyword")

		want := []models.Note{}
		for _, n := range all {
			if strings.Contains(n.Title, keyword) || strings.Contains(n.Content, keyword) {
				want = append(want, n)
			}
		}
		got, err := sess.Search(ctx, keyword)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("Search(%q) returned %d notes, want %d", keyword, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("Search(%q)[%d] = %+v, want %+v", keyword, i, got[i], want[i])
			}
		}
	})
}

func TestProperty_DeleteReportsOnce(t *testing.T) {
	db := testDB(t)
	sess := testSession(t, db)
	ctx := context.Background()

	rapid.Check(t, func(t *rapid.T) {
		n, err := sess.Create(ctx, anyText().Draw(t, "title"), "c")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		first, err := sess.DeleteByID(ctx, n.ID)
		if err != nil || !first {
			t.Fatalf("first delete = %v, %v; want true, nil", first, err)
		}
		second, err := sess.DeleteByID(ctx, n.ID)
		if err != nil || second {
			t.Fatalf("second delete = %v, %v; want false, nil", second, err)
		}
	})
}
