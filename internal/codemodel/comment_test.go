package codemodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commentTexts(cs []Comment) []string {
	return names(cs, func(c Comment) string { return c.Text })
}

func TestCode_CommentFilters(t *testing.T) {
	c := New("main.go")
	v := mustInfo(t, c, "rate", "double", SimpleVariable{})
	tr := mustTreatment(t, c, "compute", "")

	_, err := c.AddComment("file header", AboutCode{})
	require.NoError(t, err)
	_, err = c.AddComment("interest rate", AboutInformation{ID: v})
	require.NoError(t, err)
	_, err = c.AddComment("computes interest", AboutTreatment{ID: tr})
	require.NoError(t, err)

	tests := []struct {
		filter CommentFilter
		want   []string
	}{
		{CommentsAll, []string{"file header", "interest rate", "computes interest"}},
		{CommentsAboutCode, []string{"file header"}},
		{CommentsAboutInformation, []string{"interest rate"}},
		{CommentsAboutTreatment, []string{"computes interest"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			assert.Equal(t, tt.want, commentTexts(c.Comments(tt.filter)))
			assert.Equal(t, len(tt.want), c.CommentCount(tt.filter))
		})
	}

	h, ok := c.HeaderComment()
	require.True(t, ok)
	assert.Equal(t, "file header", h.Text)
	ic, ok := c.InformationComment(v)
	require.True(t, ok)
	assert.Equal(t, "interest rate", ic.Text)
	tc, ok := c.TreatmentComment(tr)
	require.True(t, ok)
	assert.Equal(t, "computes interest", tc.Text)
}

func TestCode_Retarget(t *testing.T) {
	c := New("main.go")
	v := mustInfo(t, c, "rate", "double", SimpleVariable{})
	tr := mustTreatment(t, c, "compute", "")
	cm, err := c.AddComment("note", AboutInformation{ID: v})
	require.NoError(t, err)

	require.NoError(t, c.Retarget(cm, AboutTreatment{ID: tr}))

	_, ok := c.InformationComment(v)
	assert.False(t, ok, "old back-reference is cleared")
	got, ok := c.TreatmentComment(tr)
	require.True(t, ok)
	assert.Equal(t, cm, got.ID)
	assert.Equal(t, AboutTreatment{ID: tr}, got.Target)

	assert.ErrorIs(t, c.Retarget(cm, AboutInformation{ID: 99}), ErrNotFound)
	assert.ErrorIs(t, c.Retarget(CommentID(99), AboutCode{}), ErrNotFound)
	assert.ErrorIs(t, c.Retarget(cm, nil), ErrInvalidFact)

	got, _ = c.Comment(cm)
	assert.Equal(t, AboutTreatment{ID: tr}, got.Target, "failed retarget leaves the comment in place")
	require.NoError(t, c.Validate())
}

func TestCode_LastAttachmentWins(t *testing.T) {
	t.Run("header", func(t *testing.T) {
		c := New("main.go")
		first, err := c.AddComment("first", AboutCode{})
		require.NoError(t, err)
		second, err := c.AddComment("second", AboutCode{})
		require.NoError(t, err)

		h, ok := c.HeaderComment()
		require.True(t, ok)
		assert.Equal(t, second, h.ID)
		assert.Equal(t, 1, c.CommentCount(CommentsAboutCode))

		old, ok := c.Comment(first)
		require.True(t, ok)
		assert.False(t, old.Attached())
		assert.Equal(t, 2, c.CommentCount(CommentsAll))
	})

	t.Run("information", func(t *testing.T) {
		c := New("main.go")
		v := mustInfo(t, c, "x", "int", SimpleVariable{})
		first, err := c.AddComment("first", AboutInformation{ID: v})
		require.NoError(t, err)
		_, err = c.AddComment("second", AboutInformation{ID: v})
		require.NoError(t, err)

		got, _ := c.InformationComment(v)
		assert.Equal(t, "second", got.Text)
		old, _ := c.Comment(first)
		assert.Nil(t, old.Target)
		require.NoError(t, c.Validate())
	})

	t.Run("retarget onto the same target is a no-op", func(t *testing.T) {
		c := New("main.go")
		cm, err := c.AddComment("only", AboutCode{})
		require.NoError(t, err)
		require.NoError(t, c.Retarget(cm, AboutCode{}))
		h, ok := c.HeaderComment()
		require.True(t, ok)
		assert.Equal(t, cm, h.ID)
	})
}

func TestCode_RemoveComment(t *testing.T) {
	c := New("main.go")
	v := mustInfo(t, c, "x", "int", SimpleVariable{})
	cm, err := c.AddComment("x holds the input", AboutInformation{ID: v})
	require.NoError(t, err)

	require.NoError(t, c.RemoveComment(cm))
	_, ok := c.InformationComment(v)
	assert.False(t, ok)
	assert.Zero(t, c.CommentCount(CommentsAll))
	assert.ErrorIs(t, c.RemoveComment(cm), ErrNotFound)
}
