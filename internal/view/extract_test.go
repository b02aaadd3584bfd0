package view

import (
	"testing"

	"fieldbook/internal/errmsg"
	"fieldbook/internal/models"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func plotSource() *models.Source {
	return &models.Source{
		ID:            "src1",
		SubmissionKey: "farm__plots",
		Fields: []models.Field{
			{ID: "name"},
			{ID: "visit1"},
			{ID: "visit2"},
			{ID: "visit3"},
		},
	}
}

func plotViewSource() models.ViewSource {
	return models.ViewSource{
		SubmissionKey: "farm__plots",
		Fields: map[string]string{
			"name":   "title",
			"visit1": "visit",
			"visit2": "visit",
			"visit3": "visit",
		},
	}
}

func TestExtractorClassifiesScalarsAndExploded(t *testing.T) {
	e := newExtractor(plotViewSource(), plotSource())

	require.Equal(t, map[string]string{"name": "title"}, e.scalars)
	require.Equal(t, "visit", e.exploded)
	// array element order follows the source's field order
	require.Equal(t, []string{"visit1", "visit2", "visit3"}, e.explodedFrom)
}

func TestExplosionYieldsOneRowPerSourceField(t *testing.T) {
	e := newExtractor(plotViewSource(), plotSource())

	sub := models.Submission{
		ID:            "s1",
		SubmissionKey: "farm__plots",
		Data: bson.M{
			"name":   "plot A",
			"visit1": "jan",
			"visit2": "feb",
			"visit3": "mar",
		},
	}

	rows := e.extract(sub)
	require.Len(t, rows, 3)

	for i, want := range []string{"jan", "feb", "mar"} {
		require.Equal(t, "s1", rows[i].ID)
		require.Equal(t, i, rows[i].SubIndex)
		require.Equal(t, want, rows[i].Data["visit"])
		require.Equal(t, "plot A", rows[i].Data["title"])
	}
}

func TestUnexplodedRecordYieldsSingleRow(t *testing.T) {
	vs := models.ViewSource{
		SubmissionKey: "farm__plots",
		Fields:        map[string]string{"name": "title"},
	}
	e := newExtractor(vs, plotSource())

	rows := e.extract(models.Submission{ID: "s1", Data: bson.M{"name": "x"}})
	require.Len(t, rows, 1)
	require.Equal(t, 0, rows[0].SubIndex)
}

func TestValidateRejectsTwoExplodedFields(t *testing.T) {
	v := models.View{
		Sources: []models.ViewSource{
			{
				SubmissionKey: "a",
				Fields: map[string]string{
					"f1": "x",
					"f2": "x",
				},
			},
			{
				SubmissionKey: "b",
				Fields: map[string]string{
					"g1": "y",
					"g2": "y",
				},
			},
		},
	}

	require.Equal(t, errmsg.ViewMultipleExploded, Validate(v))
}

func TestValidateAllowsOneExplodedAcrossSources(t *testing.T) {
	v := models.View{
		Sources: []models.ViewSource{
			{SubmissionKey: "a", Fields: map[string]string{"f1": "x", "f2": "x"}},
			{SubmissionKey: "b", Fields: map[string]string{"g1": "x", "g2": "x"}},
			{SubmissionKey: "c", Fields: map[string]string{"h1": "z"}},
		},
	}

	require.Equal(t, errmsg.EmptyStatusError, Validate(v))
}

func TestResolveEditFieldScalar(t *testing.T) {
	fieldID, backed, serr := ResolveEditField(plotViewSource(), plotSource(), "title", 0)
	require.Equal(t, errmsg.EmptyStatusError, serr)
	require.True(t, backed)
	require.Equal(t, "name", fieldID)
}

func TestResolveEditFieldExplodedBySubIndex(t *testing.T) {
	vs := plotViewSource()
	src := plotSource()

	for i, want := range []string{"visit1", "visit2", "visit3"} {
		fieldID, backed, serr := ResolveEditField(vs, src, "visit", i)
		require.Equal(t, errmsg.EmptyStatusError, serr)
		require.True(t, backed)
		require.Equal(t, want, fieldID)
	}

	_, _, serr := ResolveEditField(vs, src, "visit", 3)
	require.Equal(t, errmsg.ViewRowNotFound, serr)
}

func TestResolveEditFieldUnbacked(t *testing.T) {
	fieldID, backed, serr := ResolveEditField(plotViewSource(), plotSource(), "notes", 0)
	require.Equal(t, errmsg.EmptyStatusError, serr)
	require.False(t, backed)
	require.Empty(t, fieldID)
}
